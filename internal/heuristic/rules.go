package heuristic

import "github.com/mikey/llm-scam-detector/internal/core"

// Indicator labels used by the rule tables
const (
	LabelUrgency          = "urgency"
	LabelFinancial        = "financial"
	LabelReward           = "reward"
	LabelThreat           = "threat"
	LabelPersonal         = "personal"
	LabelSuspicious       = "suspicious"
	LabelTypeSpecific     = "type_specific"
	LabelSuspiciousDomain = "suspicious_domain"
	LabelJobScam          = "job_scam"
	LabelInvoiceScam      = "invoice_scam"
)

// Rule weights
const (
	universalWeight        = 5
	typeSpecificWeight     = 7
	suspiciousDomainWeight = 10
	newTLDWeight           = 5
	jobScamWeight          = 8
	invoiceScamWeight      = 9
	shortTextWeight        = 15
	shortTextLength        = 20
)

// Fixed indicator strings
const (
	IndicatorNewTLD    = "new_tld: uses new TLD"
	IndicatorShortText = "suspicious_length: text is very short"
)

const maxRiskScore = 100

// PatternRule is one lexical signal. It fires once when Phrase occurs anywhere in the
// lowercased input.
type PatternRule struct {
	Category string
	Phrase   string
	Weight   int
}

// RuleSet is the full rule table. It is built once and must not be mutated.
type RuleSet struct {
	// Universal rules apply to every content type, in evaluation order
	Universal []PatternRule
	// TypeSpecific rules are the generic phrase lists per content type
	TypeSpecific map[core.ContentType][]PatternRule
	// Named rules are the labelled per-type checks run against the whole text
	Named map[core.ContentType][]PatternRule
	// DomainKeywords and NewTLDs are matched against the host of the first URL (url type only)
	DomainKeywords []PatternRule
	NewTLDs        []PatternRule
}

func phrases(category string, weight int, list ...string) []PatternRule {
	rules := make([]PatternRule, len(list))
	for i, p := range list {
		rules[i] = PatternRule{Category: category, Phrase: p, Weight: weight}
	}
	return rules
}

func concat(groups ...[]PatternRule) []PatternRule {
	var out []PatternRule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var defaultRules = &RuleSet{
	Universal: concat(
		phrases(LabelUrgency, universalWeight,
			"urgent", "immediately", "act now", "right away", "limited time", "expires",
			"within 24 hours", "last chance", "final notice", "hurry", "deadline", "asap",
			"time sensitive", "don't delay"),
		phrases(LabelFinancial, universalWeight,
			"bank", "wire transfer", "credit card", "debit card", "gift card", "bitcoin",
			"cryptocurrency", "western union", "moneygram", "payment", "routing number",
			"account number", "processing fee", "send money", "cash app"),
		phrases(LabelReward, universalWeight,
			"congratulations", "winner", "you won", "you have won", "prize", "lottery", "free",
			"claim", "reward", "bonus", "selected", "inheritance", "million dollars",
			"work from home", "no experience", "easy money", "guaranteed income"),
		phrases(LabelThreat, universalWeight,
			"suspended", "will be suspended", "suspend", "locked", "terminated", "legal action",
			"arrest", "warrant", "lawsuit", "penalty", "closed permanently", "unauthorized",
			"compromised", "account will be"),
		phrases(LabelPersonal, universalWeight,
			"password", "social security", "ssn", "date of birth", "maiden name", "pin number",
			"verify", "confirm your", "your account", "account", "login", "username",
			"credentials", "security question"),
		phrases(LabelSuspicious, universalWeight,
			"click here", "click the link", "click below", "http://", "bit.ly", "tinyurl",
			"dear customer", "dear user", "dear friend", "secure", "update", "kindly",
			"100% guaranteed", "risk-free", "act fast"),
	),
	TypeSpecific: map[core.ContentType][]PatternRule{
		core.ContentTypeURL: phrases(LabelTypeSpecific, typeSpecificWeight,
			"bit.ly", "tinyurl", "goo.gl", "ow.ly", "@", "login", "signin", "verify", "account",
			"banking", "redirect", "http://", ".php?"),
		core.ContentTypeJobOffer: phrases(LabelTypeSpecific, typeSpecificWeight,
			"work from home", "no experience", "training fee", "starter kit", "upfront",
			"registration fee", "pay for training", "equipment fee", "unlimited earning",
			"be your own boss", "hiring immediately", "part-time", "weekly pay"),
		core.ContentTypeInvoice: phrases(LabelTypeSpecific, typeSpecificWeight,
			"overdue", "past due", "final notice", "outstanding balance", "wire",
			"new bank details", "updated bank details", "pay immediately", "late fee", "remit",
			"amount due", "invoice attached"),
	},
	Named: map[core.ContentType][]PatternRule{
		core.ContentTypeJobOffer: phrases(LabelJobScam, jobScamWeight,
			"no experience needed", "no interview", "training fee", "starter kit", "pay a fee",
			"send your bank details", "reshipping", "package forwarding", "mystery shopper",
			"data entry", "easy money", "work from home", "earn up to"),
		core.ContentTypeInvoice: phrases(LabelInvoiceScam, invoiceScamWeight,
			"change of bank details", "new account details", "bank details have changed",
			"updated payment details", "urgent payment", "gift card", "bitcoin", "crypto wallet",
			"confidential", "do not contact", "keep this confidential"),
	},
	DomainKeywords: phrases(LabelSuspiciousDomain, suspiciousDomainWeight,
		"secure", "account", "update", "verify", "login", "signin", "banking", "paypal",
		"amazon", "apple", "microsoft", "support", "free", "prize", "win", "bonus", "gift"),
	NewTLDs: phrases("new_tld", newTLDWeight, "xyz", "top", "club"),
}

// DefaultRules returns the built-in rule table. The returned value is shared and read-only.
func DefaultRules() *RuleSet {
	return defaultRules
}

// textPhrases lists every phrase matched against the full text
func (rs *RuleSet) textPhrases() []string {
	var out []string
	for _, r := range rs.Universal {
		out = append(out, r.Phrase)
	}
	for _, ct := range []core.ContentType{core.ContentTypeURL, core.ContentTypeJobOffer, core.ContentTypeInvoice} {
		for _, r := range rs.TypeSpecific[ct] {
			out = append(out, r.Phrase)
		}
		for _, r := range rs.Named[ct] {
			out = append(out, r.Phrase)
		}
	}
	return out
}

// domainPhrases lists every phrase matched against the extracted domain
func (rs *RuleSet) domainPhrases() []string {
	var out []string
	for _, r := range rs.DomainKeywords {
		out = append(out, r.Phrase)
	}
	for _, r := range rs.NewTLDs {
		out = append(out, r.Phrase)
	}
	return out
}
