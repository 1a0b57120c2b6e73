package skills

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// CronSkill parses cron expressions and projects their upcoming run times.
// It does not schedule anything.
type CronSkill struct {
	now func() time.Time
}

func NewCronSkill() *CronSkill {
	return &CronSkill{now: time.Now}
}

func (s *CronSkill) Name() string { return "cron" }
func (s *CronSkill) Description() string {
	return "Cron expression validation and next-run calculation"
}

type cronNextArgs struct {
	Expression string `json:"expression" jsonschema:"description=Cron expression (5 fields or @descriptor like @daily)"`
	Count      int    `json:"count,omitempty" jsonschema:"description=Number of upcoming runs to show (default: 5)"`
}

type cronValidateArgs struct {
	Expression string `json:"expression" jsonschema:"description=Cron expression to validate"`
}

func (s *CronSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("cron_next", "Show the next run times of a cron expression",
			cronNextArgs{}, s.next),
		newTool("cron_validate", "Check whether a cron expression is valid",
			cronValidateArgs{}, s.validate),
	}
}

func (s *CronSkill) next(args schema.Args) (string, error) {
	expr := strings.TrimSpace(args.String("expression", ""))
	if expr == "" {
		return "Error: expression is required", nil
	}
	count := args.Int("count", 5)
	if count < 1 {
		count = 1
	}
	if count > 20 {
		count = 20
	}

	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Sprintf("Error: invalid cron expression: %v", err), nil
	}

	runs := make([]string, 0, count)
	t := s.now()
	for i := 0; i < count; i++ {
		t = sched.Next(t)
		runs = append(runs, t.Format("2006-01-02 15:04:05 MST"))
	}

	return jsonBlob(map[string]interface{}{
		"expression": expr,
		"next_runs":  runs,
	}), nil
}

func (s *CronSkill) validate(args schema.Args) (string, error) {
	expr := strings.TrimSpace(args.String("expression", ""))
	if expr == "" {
		return "Error: expression is required", nil
	}

	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return jsonBlob(map[string]interface{}{
			"expression": expr,
			"valid":      false,
			"error":      err.Error(),
		}), nil
	}

	next := sched.Next(s.now())
	return jsonBlob(map[string]interface{}{
		"expression": expr,
		"valid":      true,
		"next_run":   next.Format("2006-01-02 15:04:05 MST"),
	}), nil
}
