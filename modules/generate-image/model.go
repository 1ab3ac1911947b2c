package generateimage

// GenerateImageRequest - POST /api/generate-image 요청
type GenerateImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

// FalImageInput - fal.ai Flux Pro Ultra 요청 구조체 (고정 형태)
type FalImageInput struct {
	Prompt              string `json:"prompt"`
	AspectRatio         string `json:"aspect_ratio"`
	NumImages           int    `json:"num_images"`
	OutputFormat        string `json:"output_format"`
	EnableSafetyChecker bool   `json:"enable_safety_checker"`
}

const DefaultAspectRatio = "1:1"

// AllowedAspectRatios - 업스트림이 받는 비율 목록
var AllowedAspectRatios = []string{
	"21:9",
	"16:9",
	"4:3",
	"3:2",
	"1:1",
	"2:3",
	"3:4",
	"9:16",
	"9:21",
}

// NormalizeAspectRatio returns ratio when it is allowed and DefaultAspectRatio
// for anything else, including the empty string.
func NormalizeAspectRatio(ratio string) string {
	for _, allowed := range AllowedAspectRatios {
		if ratio == allowed {
			return ratio
		}
	}
	return DefaultAspectRatio
}
