package llm

import (
	"fmt"
	"strings"
)

const answerSystemPrompt = "You are a concise assistant. Provide only the answer text."

const candidateSystemPrompt = "You generate candidate answers exactly as instructed."

const hintSystemPrompt = "You write hints that help a reader narrow down an answer without revealing it."

func answerAgnosticPrompt(question string, maxTokens int) string {
	targetWords := maxTokens / 2
	styleInstruction := "Respond with one extremely concise sentence."
	if targetWords < 10 {
		styleInstruction = "Respond with a single phrase or keyword only. No full sentences."
	}

	return fmt.Sprintf(`### INSTRUCTION
Provide the answer to the Question below.

### STRICT CONSTRAINTS
1. LENGTH: %s Keep it under %d words.
2. STYLE: Telegraphic and data-centric. No filler words. No intro/outro.
3. FORMAT: Plain text only.
4. CONTENT: High information density.
5. SAFETY: If offensive, return "Cannot answer." If unknown, return "Answer unavailable."

### INPUT
Question: %s

### OUTPUT
(Direct answer only): `, styleInstruction, targetWords, question)
}

func answerAwarePrompt(question, reference string, maxTokens int) string {
	maxWords := maxTokens * 6 / 10
	if strings.TrimSpace(reference) == "" {
		reference = "No reference provided. Use general knowledge."
	}

	return fmt.Sprintf(`### INPUT DATA
Question: %s
Reference Material: %s

### INSTRUCTION
Extract the specific answer from the Reference Material.

### STRICT CONSTRAINTS
1. LENGTH: Maximum %d words. Ideally much shorter.
2. SOURCE TRUTH: Rely ONLY on the Reference Material.
3. STYLE: Distill the answer down to its core facts. Do not write conversationally.
4. NEGATIVE CONSTRAINT: Do not start with "The answer is" or "According to the text."
5. FORMAT: Plain text.

### OUTPUT
(The distilled answer):
`, question, reference, maxWords)
}

func hintsPrompt(question, answer string, count int) string {
	answerSection := ""
	if strings.TrimSpace(answer) != "" {
		answerSection = fmt.Sprintf("Answer (for your reference, never state it): %s\n", answer)
	}

	return fmt.Sprintf(`### TASK
Write exactly %d hints for the Question below. Each hint should help a reader
converge on the answer without stating it.

### INPUT DATA
Question: %s
%s
### RULES
- One hint per line, no numbering, no markdown.
- Never include the answer text or an obvious synonym of it in any hint.
- Order hints from most general to most specific.
- Output exactly %d lines, nothing else.

### OUTPUT
`, count, question, answerSection, count)
}

func candidatesPrompt(question string, count, maxTokens int, hints []string) string {
	hintsSection := ""
	if len(hints) > 0 {
		var b strings.Builder
		b.WriteString("Contextual Hints:\n")
		for _, h := range hints {
			b.WriteString("- " + h + "\n")
		}
		hintsSection = b.String()
	}

	wordLimit := maxTokens * 6 / 10
	if wordLimit < 3 {
		wordLimit = 3
	}

	return fmt.Sprintf(`You are a quiz generator engine designed for extreme brevity.

### TASK
Generate exactly %d multiple-choice options for the Question.

### INPUT DATA
Question: %s
%s
### CONTENT RULES
- Brevity: options must be short phrases or single words.
- Limit: STRICTLY fewer than %d words per option.
- Plausibility: distractors must be realistic but incorrect.
- Format: raw text only. No numbering, no markdown, no trailing punctuation.
- Distinctness: no duplicate meanings.

### STRUCTURAL RULE (CRITICAL)
Output exactly %d lines:
1. First %d lines: INCORRECT options.
2. LAST line: CORRECT option.
3. Do not label them.

### OUTPUT
`, count, question, hintsSection, wordLimit, count, count-1)
}
