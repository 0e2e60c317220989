package analysis

import "strings"

// promptTemplate instructs the model to answer in the exact section structure
// ParseSections expects. The prompt content is configuration, not contract:
// the parser tolerates formatting drift around the six headers.
const promptTemplate = `
ROLE : You are a Senior Food Safety & Public Health Analyst specializing in FSSAI (India), EU, and US FDA standards.

TASK: Analyze the product ingredients below and provide a clear, concise, health assessment in plain text.

CONSTRAINTS:
1. OUTPUT FORMAT: Plain text only.
2. FORBIDDEN CHARACTERS: Do NOT use Markdown, asterisks (**), hashtags (#), or backticks.
3. STYLE: Concise, Professional, direct, and easy to read. Use newlines to separate sections.

Note : Ingredients like Refined Wheat Flour, refined / palm / vegetable oil, liquid glucose, starch, preservatives, colors, etc. are not good for humans.

STRUCTURE YOUR RESPONSE AS FOLLOWS:

OVERALL VERDICT
(Overall health rating in range 1-10, specially decrease score for excess sugar, preservatives, colors, refined flours and oils and chemicals.)
(e.g. healthy, Safe, Consume with Caution, or Avoid, dont consume often or frequently, etc. and fake marketing if any.)

SUMMARY
(A 3, 4 lines explaining the health profile, fake marketings, maida, palm oil, etc. harmful ingredient usage)

KEY RISKS
(List specific ingredients and why they are harmful. Do not use bullet points, just list them clearly and concisely.)

POSITIVE HIGHLIGHTS
(Any good nutritional aspects if any, in 1 or 2 lines.)

RECOMMENDATION
(Who should not consume this and how often consumption will be fine.)

MARKETING TRAPS :
(Any fake marketings, e.g. Product name is Natural juice but actual fruit juice is very less and mostly its water and sugar or
 Product name is something healthy but major ingredients are not healthy. Keep it concise.)

DATA TO ANALYZE:
Product: {product_name}
Ingredients: {ingredients}

RESPONSE:
`

// BuildPrompt fills the analysis prompt with the product name and ingredients.
func BuildPrompt(productName, ingredients string) string {
	p := strings.ReplaceAll(promptTemplate, "{product_name}", productName)
	return strings.ReplaceAll(p, "{ingredients}", ingredients)
}

// ErrorText is the prose returned when generation fails. It keeps the
// analysis endpoints returning readable content instead of a hard failure,
// and uses the canonical headers so the explanation survives ParseSections.
const ErrorText = `OVERALL VERDICT
Unavailable

SUMMARY
We encountered a system error while analyzing this product's ingredients. This could be due to temporary service unavailability, invalid API credentials, or network connectivity issues. Please try again later or contact support if the issue persists.

KEY RISKS
Analysis unavailable.

POSITIVE HIGHLIGHTS
Analysis unavailable.

RECOMMENDATION
Please try again later.

MARKETING TRAPS
Analysis unavailable.`
