// internal/agents/classifier/rules.go
package classifier

import (
	"regexp"

	"returns-insights/internal/models"
)

// intentRule binds a pattern to an intent label with a base confidence.
// Rules are evaluated top to bottom and the first match wins, so the
// analysis rules sit above the return rules: "How many cameras were
// returned?" must not be swallowed by a generic "return" pattern.
type intentRule struct {
	pattern    *regexp.Regexp
	intent     models.Intent
	confidence float64
}

var intentRules = []intentRule{
	// Report generation
	{regexp.MustCompile(`\b(generate|create|make|prepare)\b.*\breport\b`), models.IntentReportGeneration, 0.9},
	{regexp.MustCompile(`\b(excel|spreadsheet|export|download)\b`), models.IntentReportGeneration, 0.8},
	{regexp.MustCompile(`\breport\b`), models.IntentReportGeneration, 0.6},

	// Data analysis
	{regexp.MustCompile(`\b(how many|count|number of|total)\b`), models.IntentDataAnalysis, 0.8},
	{regexp.MustCompile(`\b(analysis|analyze|insights?|statistics|stats)\b`), models.IntentDataAnalysis, 0.8},
	{regexp.MustCompile(`\b(trends?|patterns?|frequency|over time|increase|decrease)\b`), models.IntentDataAnalysis, 0.7},
	{regexp.MustCompile(`\b(most|least)\s+(popular|common|frequent)\b`), models.IntentDataAnalysis, 0.7},
	{regexp.MustCompile(`\b(what|which)\s+(products?|items?)\b`), models.IntentDataAnalysis, 0.6},
	{regexp.MustCompile(`\bwhy\s+(are|do|is|does)\b`), models.IntentDataAnalysis, 0.5},
	{regexp.MustCompile(`\b(past|last|previous)\s+\d+\s+(day|week|month|year)s?\b`), models.IntentDataAnalysis, 0.6},

	// Return submission
	{regexp.MustCompile(`\b(want|need|like|have)\s+to\s+return\b`), models.IntentReturnSubmission, 0.9},
	{regexp.MustCompile(`\b(return|returns|returned|returning|refund|exchange|send back|give back)\b`), models.IntentReturnSubmission, 0.7},
	{regexp.MustCompile(`\b(defective|broken|not working|faulty|cracked)\b`), models.IntentReturnSubmission, 0.6},
	{regexp.MustCompile(`\b(doesn'?t work|stopped working|won'?t turn on)\b`), models.IntentReturnSubmission, 0.6},
	{regexp.MustCompile(`\b(bought|purchased|got)\b.*\b(problem|issue|wrong)\b`), models.IntentReturnSubmission, 0.6},
	{regexp.MustCompile(`\b(changed? my mind|don'?t want (this|it)|no longer (want|need))\b`), models.IntentReturnSubmission, 0.6},

	// Greetings go last so "Hi, I need to return..." routes to returns.
	{regexp.MustCompile(`\b(hi|hello|hey|good morning|good afternoon|good evening)\b`), models.IntentGreeting, 0.9},
	{regexp.MustCompile(`\b(thanks|thank you|appreciate)\b`), models.IntentGreeting, 0.8},
}

// Slot extraction patterns, applied independently of the intent rules.
var (
	// Price needs an explicit money cue: a $ prefix or a currency word.
	dollarAmountPattern   = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d+)?)`)
	currencyAmountPattern = regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:ntd|dollars?|usd|bucks)`)

	// Store-phrase first, marketplace keyword as fallback.
	storePhrasePattern = regexp.MustCompile(`(?i)\b(?:at|from|in)\s+([\w ]*?(?:store|shop|mall|101)[\w ]*)`)
	marketplacePattern = regexp.MustCompile(`(?i)\b(online|amazon|best buy|walmart|costco|target)\b`)

	productPattern = regexp.MustCompile(`(?i)\b(iphone|ipad|macbook|apple tv|apple watch|airpods|camera|laptop|phone|tablet|headphones|monitor|keyboard|mouse|speaker|tv)\b(\s+\d+\w*)?`)

	timeWindowPattern = regexp.MustCompile(`(?i)\b(?:past|last|previous)\s+(\d+)\s+(day|week|month|year)s?\b`)

	reasonCuePattern = regexp.MustCompile(`(?i)\b(not working|broken|defective|faulty|cracked|battery|charging|usb port|overheating|dead pixels|unresponsive)\b`)
)

// timeUnitDays converts a time phrase unit to days.
var timeUnitDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
	"year":  365,
}
