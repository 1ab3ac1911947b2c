package removebackground

// Model - fal queue 배경 제거 모델
const Model = "bria/video/background-removal"

// RemoveBackgroundRequest - POST /api/remove-background 요청
type RemoveBackgroundRequest struct {
	VideoURL        string `json:"videoUrl"`
	SubjectIsPerson *bool  `json:"subjectIsPerson"`
}

// IsPerson - 값이 없으면 true
func (r RemoveBackgroundRequest) IsPerson() bool {
	if r.SubjectIsPerson == nil {
		return true
	}
	return *r.SubjectIsPerson
}

// FalRemoveBackgroundInput - fal 요청 구조체
type FalRemoveBackgroundInput struct {
	VideoURL                string `json:"video_url"`
	OutputContainerAndCodec string `json:"output_container_and_codec"`
	RefineForegroundEdges   bool   `json:"refine_foreground_edges"`
	SubjectIsPerson         bool   `json:"subject_is_person"`
}
