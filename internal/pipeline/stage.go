package pipeline

// Stage is a state of one book-creation run.
type Stage string

const (
	StageValidating             Stage = "validating"
	StageGenerating             Stage = "generating"
	StageParsingResult          Stage = "parsing_result"
	StageAllocatingStorage      Stage = "allocating_storage"
	StagePersistingDraft        Stage = "persisting_draft"
	StageIllustratingPages      Stage = "illustrating_pages"
	StageIllustratingCharacters Stage = "illustrating_characters"
	StageDone                   Stage = "done"
	StageAborted                Stage = "aborted"
)

// Stages returns the non-terminal-failure stages in the order a run visits them.
func Stages() []Stage {
	return []Stage{
		StageValidating,
		StageGenerating,
		StageParsingResult,
		StageAllocatingStorage,
		StagePersistingDraft,
		StageIllustratingPages,
		StageIllustratingCharacters,
		StageDone,
	}
}

func (s Stage) String() string {
	return string(s)
}
