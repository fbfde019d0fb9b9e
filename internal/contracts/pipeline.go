package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 스냅샷에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   collect → quality → analyze → report

// Stage represents a pipeline stage
type Stage string

const (
	// StageCollect: 시세/선물/뉴스 수집 및 저장
	// 위치: internal/external/, internal/storage/
	StageCollect Stage = "collect"

	// StageQuality: 도메인별 검증 + 품질 점수
	// 위치: internal/quality/
	StageQuality Stage = "quality"

	// StageAnalyze: 기저(basis) 계산 + 시장/뉴스 분석
	// 위치: internal/basis/, internal/analyzer/
	StageAnalyze Stage = "analyze"

	// StageReport: 마크다운 리포트 생성
	// 위치: internal/reporter/
	StageReport Stage = "report"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// AllStages returns all stages in execution order
func AllStages() []Stage {
	return []Stage{StageCollect, StageQuality, StageAnalyze, StageReport}
}

// PipelineResult summarises one daily run
type PipelineResult struct {
	Date      string           `json:"date"`
	Completed []Stage          `json:"completed"`
	Failed    map[Stage]string `json:"failed,omitempty"`
	Quality   *QualityReport   `json:"quality,omitempty"`
	Basis     []BasisRecord    `json:"basis,omitempty"`
	Report    string           `json:"report,omitempty"`
	Halted    bool             `json:"halted"`
}
