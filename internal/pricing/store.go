package pricing

import "time"

// RuleStore holds pricing rules keyed by service ID, plus the reserved
// GlobalServiceID bucket for rules that apply to every service.
//
// The store performs no locking. Reads during evaluation are safe as long as
// no mutation runs concurrently; callers that add or remove rules while the
// store is shared must serialize access themselves.
type RuleStore struct {
	rules map[string][]PricingRule
}

// NewRuleStore returns an empty rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[string][]PricingRule)}
}

// NewDefaultRuleStore returns a store seeded with the built-in global rules.
// The new-client promo is active between promoFrom and promoUntil; a zero
// bound leaves that side of the window open.
func NewDefaultRuleStore(promoFrom, promoUntil time.Time) *RuleStore {
	s := NewRuleStore()
	for _, rule := range DefaultRules(promoFrom, promoUntil) {
		s.AddRule(rule.ServiceID, rule)
	}
	return s
}

// AddRule appends a rule to the bucket for serviceID. An empty serviceID
// falls back to the rule's own ServiceID.
func (s *RuleStore) AddRule(serviceID string, rule PricingRule) {
	if serviceID == "" {
		serviceID = rule.ServiceID
	}
	if serviceID == "" {
		serviceID = GlobalServiceID
	}
	s.rules[serviceID] = append(s.rules[serviceID], rule)
}

// RemoveRule deletes the rule with ruleID from the serviceID bucket and
// reports whether a rule was removed.
func (s *RuleStore) RemoveRule(serviceID, ruleID string) bool {
	bucket, ok := s.rules[serviceID]
	if !ok {
		return false
	}
	for i, rule := range bucket {
		if rule.ID == ruleID {
			s.rules[serviceID] = append(bucket[:i:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

// ServiceRules returns a copy of the rules stored under serviceID.
func (s *RuleStore) ServiceRules(serviceID string) []PricingRule {
	bucket := s.rules[serviceID]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]PricingRule, len(bucket))
	copy(out, bucket)
	return out
}

// Len reports the total number of stored rules.
func (s *RuleStore) Len() int {
	total := 0
	for _, bucket := range s.rules {
		total += len(bucket)
	}
	return total
}

// candidatesFor gathers the rules stored under serviceID plus the global
// bucket, preserving insertion order within each bucket.
func (s *RuleStore) candidatesFor(serviceID string) []PricingRule {
	local := s.rules[serviceID]
	global := s.rules[GlobalServiceID]
	if serviceID == GlobalServiceID {
		global = nil
	}
	out := make([]PricingRule, 0, len(local)+len(global))
	out = append(out, local...)
	out = append(out, global...)
	return out
}
