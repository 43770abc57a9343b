package pipeline

// Stage names a phase of a run.
type Stage string

const (
	StageArgs       Stage = "args"
	StageManifest   Stage = "manifest"
	StageRouteInfo  Stage = "route info"
	StageValidate   Stage = "validate"
	StagePlan       Stage = "plan"
	StageDownload   Stage = "download"
	StageDecompress Stage = "decompress"
	StageMirror     Stage = "mirror"
)

// StageError wraps the error of the phase that stopped a run. Its message is
// the message of the wrapped error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
