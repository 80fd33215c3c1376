package rules

func init() {
	registerSafetyRules()
	registerPerformanceRules()
	registerMaintainabilityRules()
}
