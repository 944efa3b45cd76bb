package config

// DefaultReviewPrompt is filled with the two records as JSON, in order.
const DefaultReviewPrompt = `You are checking a historical book-trade database for duplicate entries.
Decide whether the two records below describe the same real-world entity.
Spelling of names and places varies between sources; missing values are not evidence either way.

Record 0:
%s

Record 1:
%s

Answer with JSON only, no prose:
{"duplicate": true|false, "confidence": <number between 0 and 1>, "preferred": 0|1|null, "reason": "<short reason>"}
"preferred" is the index of the more complete record to keep as canonical, or null if they are equally good.`
