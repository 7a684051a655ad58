package core

import (
	"strings"
	"sync"
)

// DefaultCategories are the business categories emails are sorted into, in
// the order they are offered to the classifier.
var DefaultCategories = []string{
	"Customer Support Request",
	"Sales Inquiry",
	"Technical Problem",
	"Billing Question",
	"Feature Request",
	"Complaint or Issue",
	"Job Application",
	"Marketing or Promotional",
	"Spam or Unwanted",
	"Security or Account Notification",
	"Welcome or Onboarding",
	"General Question",
}

// CategoryDescriptions explains each default category and where it should
// be routed.
var CategoryDescriptions = map[string]string{
	"Customer Support Request":         "User needs help with a product or service issue. Requires assistance from support team.",
	"Sales Inquiry":                    "Potential customer asking about products, pricing, or purchase options. Forward to sales team.",
	"Technical Problem":                "System error, bug, or technical malfunction reported. Needs technical team attention.",
	"Billing Question":                 "Questions about invoices, payments, refunds, or account charges. Route to billing department.",
	"Feature Request":                  "Suggestion for new functionality or product improvement. Add to product roadmap.",
	"Complaint or Issue":               "Customer expressing dissatisfaction or reporting a problem. May need escalation.",
	"Job Application":                  "Application for employment or inquiry about job opportunities. Forward to HR department.",
	"Marketing or Promotional":         "Promotional content, newsletters, or marketing materials. Usually automated messages.",
	"Spam or Unwanted":                 "Unsolicited commercial email or irrelevant content. Consider filtering or blocking.",
	"Security or Account Notification": "Alerts about account security, password changes, or login activities.",
	"Welcome or Onboarding":            "New user welcome messages or getting started guides. Usually automated onboarding.",
	"General Question":                 "General inquiry that doesn't fit other categories. Needs initial review before routing.",
}

// DescribeCategory returns the description of label, or a placeholder for
// labels added at runtime.
func DescribeCategory(label string) string {
	if d, ok := CategoryDescriptions[label]; ok {
		return d
	}
	return "No description available"
}

// CategorySet is an ordered list of unique category labels. It is safe for
// concurrent use.
type CategorySet struct {
	mu     sync.RWMutex
	labels []string
	index  map[string]struct{}
}

// NewCategorySet creates a set holding labels in order, skipping blanks and
// duplicates.
func NewCategorySet(labels ...string) *CategorySet {
	s := &CategorySet{index: make(map[string]struct{}, len(labels))}
	s.Add(labels...)
	return s
}

// Add appends labels that are not already present and returns how many were
// added. Existing labels keep their position.
func (s *CategorySet) Add(labels ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := s.index[label]; ok {
			continue
		}
		s.index[label] = struct{}{}
		s.labels = append(s.labels, label)
		added++
	}
	return added
}

// Contains reports whether label is in the set.
func (s *CategorySet) Contains(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[label]
	return ok
}

// Labels returns a copy of the labels in insertion order.
func (s *CategorySet) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels.
func (s *CategorySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.labels)
}
