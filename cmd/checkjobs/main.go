package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sahilchouksey/edtech-checkout/config"
	"github.com/sahilchouksey/edtech-checkout/database"
	"github.com/sahilchouksey/edtech-checkout/model"
	"github.com/sahilchouksey/edtech-checkout/utils/auth"
	"go.uber.org/zap"
)

// Prints the latest scheduled job runs. With -cleanup it also drops expired
// token blacklist entries, the same work the nightly job does.
func main() {
	limit := flag.Int("limit", 20, "number of runs to show")
	job := flag.String("job", "", "only show runs of this job")
	cleanup := flag.Bool("cleanup", false, "delete expired token blacklist entries")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	store, err := database.StartGORM(zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	db := store.DB()

	fmt.Println("========================================")
	fmt.Println("SCHEDULED JOB RUNS")
	fmt.Println("========================================")

	query := db.Order("started_at DESC").Limit(*limit)
	if *job != "" {
		query = query.Where("job_name = ?", *job)
	}

	var runs []model.CronJobLog
	if err := query.Find(&runs).Error; err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch job runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("\nNo job runs recorded")
	}
	for _, run := range runs {
		fmt.Printf("─────────────────────────────────────\n")
		fmt.Printf("%s #%d %s\n", statusMark(run.Status), run.ID, run.JobName)
		fmt.Printf("   Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.CompletedAt != nil {
			fmt.Printf("   Finished: %s (%dms)\n", run.CompletedAt.Format("2006-01-02 15:04:05"), run.Duration)
		}
		if run.Message != "" {
			fmt.Printf("   Result:   %s\n", run.Message)
		}
		if run.ErrorMsg != "" {
			fmt.Printf("   Error:    %s\n", run.ErrorMsg)
		}
	}

	if *cleanup {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := auth.NewBlacklistService(db).CleanupExpiredTokens(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nRemoved %d expired blacklist entries\n", removed)
	}
}

func statusMark(status string) string {
	switch status {
	case model.JobStatusCompleted:
		return "[ok]"
	case model.JobStatusFailed:
		return "[failed]"
	default:
		return "[running]"
	}
}
