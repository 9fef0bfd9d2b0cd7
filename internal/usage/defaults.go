package usage

import "time"

const (
	CategoryOCR = "ocr"
	CategoryLLM = "llm"

	dateLayout = "2006-01-02"
	// counterTTL keeps a day's counter around long enough to be read after midnight in any zone.
	counterTTL = 48 * time.Hour
)
