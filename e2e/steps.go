package e2e

import (
	"github.com/cucumber/godog"

	"avd/e2e/steps/audit"
	"avd/e2e/steps/common"
	"avd/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (identity, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register rate limiting steps
	ratelimit.RegisterSteps(ctx, tc)

	// Register audit trail steps
	audit.RegisterSteps(ctx, tc)
}
