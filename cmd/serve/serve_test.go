package serve

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/internal/clitest"
)

func TestNewServer(t *testing.T) {
	clitest.Env(t)
	t.Setenv("LEDGER_SERVER_ADDR", ":9999")

	var server *http.Server
	probe := &cobra.Command{
		Use: "serve-probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			server = NewServer("")

			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/tester/accounts", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			return nil
		},
	}

	_, err := clitest.Execute(t, probe, "serve-probe")
	require.NoError(t, err)
	require.NotNil(t, server)
	assert.Equal(t, ":9999", server.Addr)
	assert.Nil(t, root.AppContainer)
}
