package libav

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the decoder is closed"
}
