package compositor

// Stage is a step of the render state machine:
//
//	Idle → Configuring → (EmptyPlaceholder | SlotsResolved → ImagesLoading → Drawing) → Idle
type Stage int

const (
	Idle Stage = iota
	Configuring
	EmptyPlaceholder
	SlotsResolved
	ImagesLoading
	Drawing
)

var stageNames = [...]string{"idle", "configuring", "empty-placeholder", "slots-resolved", "images-loading", "drawing"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
