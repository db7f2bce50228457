// Command photomanager is the thin subcommand dispatcher over the
// photomanager package. Its flag parsing is intentionally minimal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cluain/photomanager"
	"github.com/cluain/photomanager/internal/digest"
	"github.com/cluain/photomanager/internal/storageclass"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	if len(args) == 0 {
		usage(errOut)
		return 2
	}

	action := args[0]
	rest := args[1:]

	switch action {
	case "create":
		return runCreate(rest, out, errOut)
	case "index":
		return runIndex(rest, out, errOut)
	case "collect":
		return runCollect(rest, out, errOut)
	case "import":
		if rc := runIndex(rest, out, errOut); rc != 0 {
			return rc
		}
		return runCollect(rest, out, errOut)
	case "verify":
		return runVerify(rest, out, errOut)
	case "clean":
		return runClean(rest, out, errOut)
	case "stats":
		return runStats(rest, out, errOut)
	case "-h", "--help", "help":
		usage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown action %q\n", action)
		usage(errOut)
		return 2
	}
}

func usage(w *os.File) {
	fmt.Fprint(w, `Usage:
   photomanager <create|index|collect|import|verify|clean|stats> [flags]

Common flags: --db PATH  --destination DIR  --debug
`)
}

func commonFlags(fs *flag.FlagSet) (db *string, destination *string, debug *bool, storageType *string) {
	db = fs.String("db", "", "catalog file path (required)")
	destination = fs.String("destination", "", "destination root directory")
	debug = fs.Bool("debug", false, "enable per-file trace output")
	storageType = fs.String("storage", "HDD", "storage class hint: HDD|SSD|RAID")
	return
}

func parseStorageClass(s string, errOut *os.File) storageclass.Class {
	class, ok := storageclass.Parse(s)
	if !ok {
		fmt.Fprintf(errOut, "unknown storage class %q, defaulting to HDD\n", s)
	}
	return class
}

func runCreate(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	db, _, debug, _ := commonFlags(fs)
	algo := fs.String("algo", "sha256", "digest algorithm: blake2b-256|blake3|sha256")
	tz := fs.String("timezone-default", "local", "default timezone offset or \"local\"")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *db == "" {
		fmt.Fprintln(errOut, "--db is required")
		return 2
	}

	a, ok := digest.ParseAlgorithm(*algo)
	if !ok {
		fmt.Fprintf(errOut, "unknown algorithm %q\n", *algo)
		return 2
	}

	config := photomanager.CreateConfig{Debug: *debug}
	mgr, err := photomanager.New(*db, a, *tz, config)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if err := mgr.PersistChanges(); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "created catalog at %s\n", *db)
	return 0
}

func runIndex(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	db, _, debug, storageType := commonFlags(fs)
	skipExisting := fs.Bool("skip-existing", false, "skip paths already known to the catalog")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	roots := fs.Args()
	if *db == "" || len(roots) == 0 {
		fmt.Fprintln(errOut, "--db and at least one root path are required")
		return 2
	}

	mgr, err := photomanager.Open(*db, photomanager.CreateConfig{Debug: *debug})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	class := parseStorageClass(*storageType, errOut)
	outcomes, err := mgr.Index(roots, photomanager.IndexOptions{StorageClass: class, SkipExisting: *skipExisting})
	if err != nil {
		fmt.Fprintln(errOut, err)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(errOut, "%s: %s\n", o.Path, o.Err)
		}
	}

	if perr := mgr.PersistChanges(); perr != nil {
		fmt.Fprintln(errOut, perr)
		return 1
	}
	fmt.Fprintf(out, "indexed %d paths\n", len(outcomes))
	if err != nil {
		return 1
	}
	return 0
}

func runCollect(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	db, destination, debug, _ := commonFlags(fs)
	collectDB := fs.Bool("collect-db", false, "also copy the catalog into the destination root")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *db == "" || *destination == "" {
		fmt.Fprintln(errOut, "--db and --destination are required")
		return 2
	}

	mgr, err := photomanager.Open(*db, photomanager.CreateConfig{Debug: *debug})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	results, err := mgr.Collect(*destination, *collectDB)
	if err != nil {
		fmt.Fprintln(errOut, err)
		if !mgr.RollbackAllFilesystemChanges() {
			fmt.Fprintln(errOut, "rollback incomplete")
		}
		return 1
	}
	fmt.Fprintf(out, "collected %d uids\n", len(results))
	return 0
}

func runVerify(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	db, destination, debug, storageType := commonFlags(fs)
	subdir := fs.String("subdir", "", "restrict verification to a sto prefix")
	fraction := fs.Float64("random-fraction", 1.0, "independently sample each stored variant with this probability")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *db == "" || *destination == "" {
		fmt.Fprintln(errOut, "--db and --destination are required")
		return 2
	}

	mgr, err := photomanager.Open(*db, photomanager.CreateConfig{Debug: *debug})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	class := parseStorageClass(*storageType, errOut)
	summary, err := mgr.Verify(*destination, photomanager.VerifyOptions{
		Subdir: *subdir, RandomFraction: *fraction, StorageClass: class,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	fmt.Fprintf(out, "PASS=%d FAIL=%d MISSING=%d bytes=%d\n", summary.NPass, summary.NFail, summary.NMissing, summary.TotalBytes)
	if summary.NFail > 0 || summary.NMissing > 0 {
		return 1
	}
	return 0
}

func runClean(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	db, destination, debug, _ := commonFlags(fs)
	dryRun := fs.Bool("dry-run", false, "log the plan without touching the filesystem")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *db == "" || *destination == "" {
		fmt.Fprintln(errOut, "--db and --destination are required")
		return 2
	}

	mgr, err := photomanager.Open(*db, photomanager.CreateConfig{Debug: *debug})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	actions, err := mgr.Clean(*destination, *dryRun)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	failed := 0
	for _, a := range actions {
		if a.Err != nil {
			failed++
			fmt.Fprintf(errOut, "%s: %s\n", a.UID, a.Err)
		}
	}
	fmt.Fprintf(out, "cleaned %d variants\n", len(actions)-failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runStats(args []string, out, errOut *os.File) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	db, _, debug, _ := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *db == "" {
		fmt.Fprintln(errOut, "--db is required")
		return 2
	}

	mgr, err := photomanager.Open(*db, photomanager.CreateConfig{Debug: *debug})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	s := mgr.Stats()
	fmt.Fprintf(out, "uids=%d variants=%d stored=%d size=%s\n", s.TotalUIDs, s.TotalVariants, s.TotalStored, sizeofFmt(s.TotalFileSize))
	return 0
}

// sizeofFmt renders n bytes in the same binary-unit style PhotoManager's
// stats report has always used: bytes/kB/MB/GB/TB/PB at base 1024.
func sizeofFmt(n int64) string {
	units := []string{"bytes", "kB", "MB", "GB", "TB", "PB"}
	if n < 2 {
		if n == 1 {
			return "1 byte"
		}
		return "0 bytes"
	}
	size := float64(n)
	exp := 0
	for size >= 1024 && exp < len(units)-1 {
		size /= 1024
		exp++
	}
	if exp <= 1 {
		return fmt.Sprintf("%.0f %s", size, units[exp])
	}
	return fmt.Sprintf("%.2f %s", size, units[exp])
}
