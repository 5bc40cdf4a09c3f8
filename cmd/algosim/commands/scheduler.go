package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/algosim/internal/scheduler"
	"github.com/wonny/algosim/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Price refresh scheduler",
	Long: `Keeps the price store warm for the WATCH_LIST symbols.

Subcommands:
  start   - run the scheduler until interrupted
  list    - show registered jobs
  run     - run a job once, now

Example:
  WATCH_LIST=AAPL,SPY go run ./cmd/algosim scheduler start
  go run ./cmd/algosim scheduler run refresh_prices`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runSchedulerStart,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  runSchedulerList,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerRun,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers every job against the app's loader
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewRefreshPricesJob(a.loader, a.cfg, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log, "")
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}

	if len(cfg.Scheduler.WatchList) == 0 {
		PrintWarning("WATCH_LIST is empty; refresh_prices will do nothing")
	}

	sched.Start()
	fmt.Printf("✅ Scheduler running (%s)\n", strings.Join(sched.GetAllJobs(), ", "))
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log, "")
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}

	widths := []int{18, 20, 40}
	PrintTableHeader([]string{"Job", "Schedule", "Symbols"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule, strings.Join(cfg.Scheduler.WatchList, ",")}, widths)
	}
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log, "")
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return err
	}

	result, err := sched.RunNow(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %s", result.JobName, result.Duration))
	return nil
}
