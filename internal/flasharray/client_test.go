package flasharray

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// newTestArray spins up a fake array endpoint and returns a logged-in
// client pointed at it. The handler receives every request after login.
func newTestArray(t *testing.T, versions []string, handler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/api_version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"version": versions})
	})
	for _, v := range versions {
		mux.HandleFunc("/api/"+v+"/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("api-token") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"errors": []map[string]string{{"message": "invalid credentials"}},
				})
				return
			}
			w.Header().Set("x-auth-token", "session-token")
			w.WriteHeader(http.StatusOK)
		})
	}
	if handler != nil {
		mux.HandleFunc("/", handler)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{Endpoint: srv.URL, APIToken: "token", VerifyTLS: false})
	require.NoError(t, err)
	require.NoError(t, client.Login(context.Background()))
	return client
}

func TestNewClientValidatesOptions(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Options{APIToken: "t"})
	require.Error(t, err)

	_, err = NewClient(Options{Endpoint: "array1.example.com"})
	require.Error(t, err)
}

func TestLoginNegotiatesHighestSupportedVersion(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.0", "2.4", "2.36", "2.9"}, nil)
	require.Equal(t, "2.36", client.RESTVersion())
}

func TestLoginCapsAtClientMaximum(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.36", maxSupportedRESTVersion, "99.0"}, nil)
	require.Equal(t, maxSupportedRESTVersion, client.RESTVersion())
}

func TestLoginRejectsUnsupportedArray(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/api_version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"version": []string{"1.19"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{Endpoint: srv.URL, APIToken: "token"})
	require.NoError(t, err)

	err = client.Login(context.Background())
	var uve *purefaerrors.UnsupportedVersionError
	require.ErrorAs(t, err, &uve)
}

func TestGetVolumeDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.36"}, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "session-token", r.Header.Get("x-auth-token"))
		require.Equal(t, "db01", r.URL.Query().Get("names"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"name":        "db01",
				"provisioned": 1099511627776,
				"destroyed":   false,
				"qos":         map[string]any{"bandwidth_limit": 1048576},
			}},
		})
	})

	vol, err := client.GetVolume(context.Background(), "db01")
	require.NoError(t, err)
	require.NotNil(t, vol)
	require.Equal(t, "db01", vol.Name)
	require.Equal(t, int64(1099511627776), vol.Provisioned)
	require.NotNil(t, vol.QoS)
	require.Equal(t, int64(1048576), vol.QoS.BandwidthLimit)
}

func TestGetVolumeAbsenceIsNotAnError(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.36"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "Volume does not exist.", "context": "db01"}},
		})
	})

	vol, err := client.GetVolume(context.Background(), "db01")
	require.NoError(t, err)
	require.Nil(t, vol)
}

func TestMutatingCallSurfacesServerTextVerbatim(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.36"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "Volume already exists."}},
		})
	})

	_, err := client.CreateVolume(context.Background(), "db01", VolumeCreate{Provisioned: 1024})
	var roe *purefaerrors.RemoteOperationError
	require.ErrorAs(t, err, &roe)
	require.Equal(t, http.StatusConflict, roe.StatusCode)
	require.Equal(t, "Volume already exists.", roe.Message)
}

func TestMutatingAbsenceStaysAnError(t *testing.T) {
	t.Parallel()

	client := newTestArray(t, []string{"2.36"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "Volume does not exist."}},
		})
	})

	err := client.EradicateVolume(context.Background(), "ghost")
	var roe *purefaerrors.RemoteOperationError
	require.ErrorAs(t, err, &roe)
	require.Contains(t, roe.Message, "does not exist")
}

func TestCallsRequireLogin(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Options{Endpoint: "array1.example.com", APIToken: "token"})
	require.NoError(t, err)

	_, err = client.GetVolume(context.Background(), "db01")
	var roe *purefaerrors.RemoteOperationError
	require.ErrorAs(t, err, &roe)
	require.Contains(t, roe.Message, "not logged in")
}

func TestErrorTextJoinsMultipleErrors(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(map[string]any{
		"errors": []map[string]string{
			{"message": "Invalid size.", "context": "size"},
			{"message": "Invalid QoS."},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Invalid size. (size); Invalid QoS.", errorText(body))
}

func TestErrorTextFallsBackToRawBody(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Bad Gateway", errorText([]byte("Bad Gateway")))
	require.Equal(t, "no error detail supplied", errorText(nil))
}
