package server

import (
	"io"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/raterudder/solarkiosk/pkg/surface"
)

type mockSurface struct {
	mock.Mock
}

func (m *mockSurface) ServeWS(w http.ResponseWriter, r *http.Request) {
	m.Called(w, r)
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (m *mockSurface) State() surface.State {
	args := m.Called()
	if len(args) > 0 {
		return args.Get(0).(surface.State)
	}
	return surface.State{}
}

func (m *mockSurface) WriteChartPNG(w io.Writer) error {
	args := m.Called(w)
	if err := args.Error(0); err != nil {
		return err
	}
	_, err := w.Write([]byte("\x89PNG\r\n\x1a\n"))
	return err
}
