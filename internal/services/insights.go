package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/paulexconde/together/internal/log"
)

// Values an insight condition can refer to.
type insightEnv struct {
	Streak           int
	PerfectDays      int
	MoodMatchPercent int
	BothDays         int
	BestDay          string
	Trend            string
}

// An insight is shown when its When expression evaluates to true.
type insightRule struct {
	Name    string
	When    string
	Message func(env insightEnv) string
}

// Order here is the order insights are shown in.
var insightRules = []insightRule{
	{
		Name: "streak",
		When: fmt.Sprintf("Streak >= %d", streakInsightFloor),
		Message: func(env insightEnv) string {
			return fmt.Sprintf("You're on a %d-day check-in streak!", env.Streak)
		},
	},
	{
		Name: "perfect-days",
		When: "PerfectDays > 0",
		Message: func(env insightEnv) string {
			if env.PerfectDays == 1 {
				return "1 perfect day where you both felt great"
			}
			return fmt.Sprintf("%d perfect days where you both felt great", env.PerfectDays)
		},
	},
	{
		Name: "mood-match",
		When: fmt.Sprintf("MoodMatchPercent >= %d && BothDays >= %d", matchInsightFloor, matchMinBothDays),
		Message: func(env insightEnv) string {
			return fmt.Sprintf("You and your partner matched moods %d%% of the time", env.MoodMatchPercent)
		},
	},
	{
		Name: "best-day",
		When: `BestDay != ""`,
		Message: func(env insightEnv) string {
			return fmt.Sprintf("%ss tend to be your best days", env.BestDay)
		},
	},
	{
		Name: "trending-up",
		When: fmt.Sprintf("Trend == %q", trendUp),
		Message: func(insightEnv) string {
			return "Your mood has been trending up lately"
		},
	},
	{
		Name: "trending-down",
		When: fmt.Sprintf("Trend == %q", trendDown),
		Message: func(insightEnv) string {
			return "Your mood has been trending down lately"
		},
	},
}

var compiledInsights = mustCompileInsights(insightRules)

type compiledInsight struct {
	rule    insightRule
	program *vm.Program
}

func mustCompileInsights(rules []insightRule) []compiledInsight {
	out := make([]compiledInsight, 0, len(rules))
	for _, r := range rules {
		program, err := expr.Compile(r.When, expr.Env(insightEnv{}), expr.AsBool())
		if err != nil {
			panic(fmt.Sprintf("insight %s: %v", r.Name, err))
		}
		out = append(out, compiledInsight{rule: r, program: program})
	}
	return out
}

// buildInsights returns every applicable insight line in rule order.
func buildInsights(env insightEnv) []string {
	insights := []string{}
	for _, c := range compiledInsights {
		match, err := evaluateRule(c.program, env)
		if err != nil {
			log.Warnf("insight %s skipped: %v", c.rule.Name, err)
			continue
		}
		if match {
			insights = append(insights, c.rule.Message(env))
		}
	}
	return insights
}

func evaluateRule(program *vm.Program, env insightEnv) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean")
	}

	return result, nil
}
