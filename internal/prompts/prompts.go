package prompts

import "fmt"

const keywordSystemPromptTemplate = `You are a visual keyword extractor. Your task is to extract keywords that will produce good visual search results. ` +
	`Extract exactly %d visually descriptive keywords or phrases from the text. ` +
	`Focus on concrete objects, scenes, or concepts that would make good photographs. ` +
	`Avoid abstract concepts unless they have clear visual representations. ` +
	`Return only the keywords, separated by commas, no explanations. ` +
	`Example good keywords: 'artificial intelligence laboratory, data scientist working, modern research facility'`

// KeywordSystemPrompt returns the system prompt for extracting maxKeywords
// visually descriptive keywords from narration text. The keywords feed both
// AI image generation and the photo-search fallback.
func KeywordSystemPrompt(maxKeywords int) string {
	return fmt.Sprintf(keywordSystemPromptTemplate, maxKeywords)
}

const imagePromptTemplate = `A high quality, photorealistic image of %s. Clean composition, professional lighting, no text or watermarks.`

// ImagePrompt frames one extracted keyword as an image generation prompt.
func ImagePrompt(keyword string) string {
	return fmt.Sprintf(imagePromptTemplate, keyword)
}

// FallbackKeywords is used when keyword extraction fails; these queries
// reliably return usable photography.
var FallbackKeywords = []string{"modern office", "technology", "business professional"}
