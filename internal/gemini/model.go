package gemini

import "os"

// Gemini Model IDs
//
// | Model Name             | API Model ID          | Use Case                      |
// |------------------------|-----------------------|-------------------------------|
// | Gemini 2.5 Pro         | gemini-2.5-pro        | Stable, high-reasoning tasks  |
// | Gemini 2.5 Flash       | gemini-2.5-flash      | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite  | gemini-2.5-flash-lite | High-throughput, lowest cost  |
// | Gemini 2.0 Flash       | gemini-2.0-flash      | Legacy, kept for comparison   |
const (
	// ModelGemini25Pro is stable, for high-reasoning tasks.
	ModelGemini25Pro = "gemini-2.5-pro"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"

	// ModelGemini20Flash was the original review model, kept for A/B runs.
	ModelGemini20Flash = "gemini-2.0-flash"
)

// DefaultModelName is the default Gemini model for review generation.
// Can be overridden via GEMINI_MODEL environment variable.
const DefaultModelName = ModelGemini25Flash

// GetModelName returns the Gemini model to use, resolved from:
// 1. GEMINI_MODEL environment variable (if set)
// 2. Default: gemini-2.5-flash
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
