package rule

// Matches reports whether an incoming trigger shape matches a rule's
// declared trigger. Kinds never cross-match. Schedule triggers are never
// matched here: they need wall-clock context the matcher does not have, so
// only the scheduled sweep evaluates them (via ScheduleTrigger.Due).
func Matches(ruleTrigger, incoming Trigger) bool {
	if ruleTrigger == nil || incoming == nil {
		return false
	}
	if ruleTrigger.Kind() != incoming.Kind() {
		return false
	}
	switch rt := ruleTrigger.(type) {
	case DataChangeTrigger:
		in := incoming.(DataChangeTrigger)
		return rt.Entity == in.Entity && rt.Field == in.Field
	case EventTrigger:
		return rt.Name == incoming.(EventTrigger).Name
	}
	return false
}
