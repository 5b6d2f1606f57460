package flash

// Progress is the diagnostic sink Commit reports against: one failure
// notification each for the filling, erasing and programming steps, plus
// free-form log/warn lines. It plays the role
// the teacher's printInfo/printError helpers play for the CLI, generalized
// to an interface so library callers can wire their own renderer.
type Progress interface {
	Log(format string, args ...any)
	Warn(format string, args ...any)

	FailedFilling()
	FailedErasing()
	FailedProgramming()
}

// NilProgress is the silent default DownloadOptions.Progress falls back
// to when the caller supplies none.
type NilProgress struct{}

func (NilProgress) Log(string, ...any)  {}
func (NilProgress) Warn(string, ...any) {}
func (NilProgress) FailedFilling()      {}
func (NilProgress) FailedErasing()      {}
func (NilProgress) FailedProgramming()  {}
