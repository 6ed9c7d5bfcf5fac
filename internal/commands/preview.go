package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/recurrence"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/utils"
)

// PreviewPatternCmd expands a pattern rule and prints its slots without
// touching the database. The rule comes from flags or from a stored 7-field
// encoding passed with --encoded.
func PreviewPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview-pattern",
		Short: "Print the occurrences a maintenance pattern produces",
		Example: `  tenancyctl preview-pattern --frequency monthly --day 15 --step 2 \
    --start 09:00 --end 11:00 --from 2024-01-01 --till 2024-12-31 --as-of 2023-12-20
  tenancyctl preview-pattern --frequency weekly --encoded "0 0 0 ? * 2,4 *" \
    --start 09:00 --end 10:00 --from 2024-06-03 --till 2024-06-30 --as-of 2024-06-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			freq, _ := flags.GetString("frequency")
			encoded, _ := flags.GetString("encoded")
			tz, _ := flags.GetString("timezone")

			req := &domain.MaintenanceScheduleRequest{FrequencyType: domain.FrequencyTypePattern}
			req.Frequency = domain.PatternFrequency(freq)
			req.DayOfMonth, _ = flags.GetInt("day")
			req.Month, _ = flags.GetInt("month")
			req.StepMonths, _ = flags.GetInt("step")
			req.Weekdays, _ = flags.GetIntSlice("weekdays")
			req.StartTime, _ = flags.GetString("start")
			req.EndTime, _ = flags.GetString("end")
			req.ValidFrom, _ = flags.GetString("from")
			req.ValidTill, _ = flags.GetString("till")
			req.Timezone = tz

			if encoded != "" {
				if err := applyEncoded(req, encoded); err != nil {
					return err
				}
			}

			loc, err := utils.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("--timezone: %v", err)
			}
			now := time.Now
			if asOf, _ := flags.GetString("as-of"); asOf != "" {
				t, err := utils.ParseDateIn(asOf, loc)
				if err != nil {
					return fmt.Errorf("--as-of: %v", err)
				}
				now = func() time.Time { return t }
			}

			builder := service.NewMaintenanceScheduleBuilder(nil, nil, "UTC", now)
			slots, err := builder.Preview(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range slots {
				fmt.Fprintf(out, "%3d  %s  ->  %s\n", i+1,
					s.StartAt.In(loc).Format("2006-01-02 Mon 15:04"),
					s.EndAt.In(loc).Format("15:04 MST"))
			}
			fmt.Fprintf(out, "%d occurrence(s)\n", len(slots))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("frequency", "", "daily, weekly, monthly or yearly")
	flags.String("encoded", "", "stored 7-field pattern, space separated")
	flags.Int("day", 0, "day of month (1-28) for monthly and yearly patterns")
	flags.Int("month", 0, "month (1-12) for yearly patterns")
	flags.Int("step", 0, "month step (1-6) for monthly patterns")
	flags.IntSlice("weekdays", nil, "ISO weekdays (1=Mon..7=Sun) for weekly patterns")
	flags.String("start", "", "start time of day, 15:04")
	flags.String("end", "", "end time of day, 15:04")
	flags.String("from", "", "first date, 2006-01-02")
	flags.String("till", "", "last date inclusive, 2006-01-02")
	flags.String("timezone", "UTC", "timezone the dates and times are in")
	flags.String("as-of", "", "drop occurrences starting before this date (default now)")
	_ = cmd.MarkFlagRequired("frequency")

	return cmd
}

// applyEncoded decodes a stored pattern into the request's pattern fields.
func applyEncoded(req *domain.MaintenanceScheduleRequest, encoded string) error {
	start, err := utils.ParseClock(req.StartTime)
	if err != nil {
		return fmt.Errorf("--start: %v", err)
	}
	end, err := utils.ParseClock(req.EndTime)
	if err != nil {
		return fmt.Errorf("--end: %v", err)
	}

	p, err := recurrence.ParsePattern(req.Frequency, strings.Fields(encoded), start, end)
	if err != nil {
		return err
	}
	req.DayOfMonth = p.DayOfMonth
	req.Month = p.Month
	req.StepMonths = p.StepMonths
	req.Weekdays = p.Weekdays
	return nil
}
