package scanning

import "strings"

// labelTranscribePrompt is the shared prompt used by all LLM providers for reading labels
const labelTranscribePrompt = `You are reading a photo of a product package or label. Transcribe ALL printed text exactly as it appears, line by line.

Pay special attention to date stamps and the words around them, such as "MFG", "MFD", "PKD", "MANUFACTURED", "EXP", "EXPIRES", "USE BY" and "BEST BEFORE".

Important:
- Copy dates character for character; do not reformat, reorder or complete them
- Keep the original line breaks
- Do not translate, summarize or explain anything
- Do not add any text before or after the transcription
- Do not use markdown code blocks
- If there is no readable text, return an empty response`

// cleanTranscript strips markdown fences and surrounding whitespace that LLM
// providers add around a transcription despite being asked not to.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks, with or without a language tag
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl != -1 && isFenceTag(text[:nl]) {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

// isFenceTag reports whether s looks like a code fence language tag ("", "text", "json").
func isFenceTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
