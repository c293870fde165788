package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/attendly-backend/internal/app"
	"github.com/yungbote/attendly-backend/internal/pkg/apierr"
)

// Imports pre-migration "present" marks from a CSV of user_id,YYYY-MM-DD
// lines. This is the only path that creates legacy_present rows; the submit
// API never accepts the action.
func main() {
	var file string
	var dryRun bool
	flag.StringVar(&file, "file", "", "CSV file of user_id,day rows")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and report without writing")
	flag.Parse()

	if file == "" {
		fmt.Println("usage: backfill_legacy_marks -file marks.csv [-dry-run]")
		os.Exit(1)
	}

	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	f, err := os.Open(file)
	if err != nil {
		fmt.Printf("open %s: %v\n", file, err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	imported, skipped := 0, 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			fmt.Printf("skipping malformed line: %q\n", line)
			skipped++
			continue
		}

		userID, err := uuid.Parse(strings.TrimSpace(parts[0]))
		if err != nil {
			fmt.Printf("skipping line with bad user id: %q\n", line)
			skipped++
			continue
		}
		day, err := time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
		if err != nil {
			fmt.Printf("skipping line with bad day: %q\n", line)
			skipped++
			continue
		}

		if dryRun {
			imported++
			continue
		}

		if _, err := application.Services.Attendance.ImportLegacyMark(ctx, userID, day); err != nil {
			if apiErr, ok := apierr.As(err); ok && apiErr.Code == apierr.CodeDuplicateAction {
				skipped++
				continue
			}
			fmt.Printf("import %s %s: %v\n", userID, parts[1], err)
			os.Exit(1)
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("read %s: %v\n", file, err)
		os.Exit(1)
	}

	fmt.Printf("imported=%d skipped=%d dry_run=%v\n", imported, skipped, dryRun)
}
