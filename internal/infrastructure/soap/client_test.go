package soap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/tracking-service/internal/core/normalizer"
)

type fakeService struct {
	srv      *httptest.Server
	wsdlHits atomic.Int32

	mu          sync.Mutex
	wsdlGate    chan struct{}
	lastAction  string
	lastRequest string
	response    string
	status      int
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	fs := &fakeService{response: readFixture(t, "track_response.xml"), status: http.StatusOK}

	service := readFixture(t, "service.wsdl")
	portType := readFixture(t, "porttype.wsdl")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fs.wsdlHits.Add(1)
			fs.mu.Lock()
			gate := fs.wsdlGate
			fs.mu.Unlock()
			if gate != nil {
				<-gate
			}
			_, _ = io.WriteString(w, strings.ReplaceAll(service, "{{ENDPOINT}}", "http://"+r.Host+"/ws"))
			return
		}
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.lastAction = r.Header.Get("SOAPAction")
		fs.lastRequest = string(body)
		status, response := fs.status, fs.response
		fs.mu.Unlock()
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	})
	mux.HandleFunc("/porttype.wsdl", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, portType)
	})

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeService) respond(status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status, fs.response = status, body
}

// holdWSDL makes WSDL requests wait until the returned func is called.
func (fs *fakeService) holdWSDL() (release func()) {
	gate := make(chan struct{})
	fs.mu.Lock()
	fs.wsdlGate = gate
	fs.mu.Unlock()
	return sync.OnceFunc(func() { close(gate) })
}

func (fs *fakeService) last() (action, request string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastAction, fs.lastRequest
}

func (fs *fakeService) factory() *Factory {
	return fs.factoryWithTTL(time.Hour)
}

func (fs *fakeService) factoryWithTTL(ttl time.Duration) *Factory {
	return NewFactory(Config{WSDLURL: fs.srv.URL + "/ws?wsdl", Timeout: 2 * time.Second, ContractTTL: ttl}, zerolog.Nop())
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

func TestDiscover_FollowsImports(t *testing.T) {
	fs := newFakeService(t)

	c, err := Discover(context.Background(), fs.srv.Client(), fs.srv.URL+"/ws?wsdl")
	require.NoError(t, err)

	assert.Equal(t, fs.srv.URL+"/ws", c.Endpoint)
	require.Contains(t, c.Operations, "trackSkybillV2")
	require.Contains(t, c.Operations, "searchPOD")
	assert.Equal(t, "http://cxf.tracking.soap.chronopost.fr/", c.Operations["trackSkybillV2"].Namespace)
	assert.Equal(t, "urn:trackSkybillV2", c.Operations["trackSkybillV2"].Action)
	assert.Contains(t, c.ListElements, "remarks")
	assert.Contains(t, c.ListElements, "events")
}

func TestDiscover_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Discover(context.Background(), srv.Client(), srv.URL+"/ws?wsdl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_TrackSkybill(t *testing.T) {
	fs := newFakeService(t)

	client, err := fs.factory().Connect(context.Background())
	require.NoError(t, err)

	ops := client.Operations()
	assert.Equal(t, []string{"searchPOD", "trackSkybillV2"}, ops.Names())

	raw, err := ops["trackSkybillV2"](context.Background(), map[string]any{"skybillNumber": "XN081879383FR"})
	require.NoError(t, err)

	action, request := fs.last()
	assert.Equal(t, `"urn:trackSkybillV2"`, action)
	assert.Contains(t, request, `<tns:trackSkybillV2>`)
	assert.Contains(t, request, `<skybillNumber>XN081879383FR</skybillNumber>`)

	ret := raw.(map[string]any)["return"].(map[string]any)
	events := ret["listEventInfoComp"].(map[string]any)["events"].([]any)
	require.Len(t, events, 2)

	first := events[0].(map[string]any)
	assert.Equal(t, []any{"first", "second"}, first["remarks"])

	second := events[1].(map[string]any)
	assert.Nil(t, second["zipCode"])
	assert.Len(t, second["infoCompList"], 1)

	res := normalizer.Normalize(raw)
	assert.Equal(t, "Livraison effectuée", res.Status)
	assert.Equal(t, "D", res.StatusCode)
	assert.Equal(t, "2024-01-05T14:02:00", res.Date)
	assert.Equal(t, "A. MARTIN", res.Name)
}

func TestClient_Fault(t *testing.T) {
	fs := newFakeService(t)
	fs.respond(http.StatusInternalServerError, readFixture(t, "fault_response.xml"))

	client, err := fs.factory().Connect(context.Background())
	require.NoError(t, err)

	_, err = client.Operations()["trackSkybillV2"](context.Background(), map[string]any{"skybillNumber": "bad"})

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "soap:Server", fault.Code)
	assert.Contains(t, fault.Message, "skybillNumber invalide")
}

func TestClient_UnexpectedStatus(t *testing.T) {
	fs := newFakeService(t)
	fs.respond(http.StatusBadGateway, "<html>bad gateway</html>")

	client, err := fs.factory().Connect(context.Background())
	require.NoError(t, err)

	_, err = client.Operations()["trackSkybillV2"](context.Background(), map[string]any{"skybillNumber": "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFactory_ReusesContract(t *testing.T) {
	fs := newFakeService(t)
	f := fs.factory()

	for range 3 {
		_, err := f.Connect(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fs.wsdlHits.Load())
}

func TestDecodeResponse_EmptyBody(t *testing.T) {
	raw, err := decodeResponse(strings.NewReader(
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body></soap:Body></soap:Envelope>`,
	), nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestDecodeResponse_NotAnEnvelope(t *testing.T) {
	for name, doc := range map[string]string{
		"plain root":      `<root/>`,
		"wrong namespace": `<soap:Envelope xmlns:soap="urn:other"><soap:Body><r><a>1</a></r></soap:Body></soap:Envelope>`,
		"not xml":         `bad gateway`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeResponse(strings.NewReader(doc), nil)
			assert.ErrorIs(t, err, errNotEnvelope)
		})
	}
}

func TestDecodeResponse_NoBody(t *testing.T) {
	_, err := decodeResponse(strings.NewReader(
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Header/></soap:Envelope>`,
	), nil)
	assert.ErrorIs(t, err, errNoBody)
}

func TestDecodeResponse_IgnoresBodyInsideHeader(t *testing.T) {
	doc := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Header><h:Session xmlns:h="urn:h"><h:Body>routing</h:Body></h:Session><h:Body xmlns:h="urn:h">x</h:Body></soap:Header>
  <soap:Body>
    <ns1:trackSkybillV2Response xmlns:ns1="http://cxf.tracking.soap.chronopost.fr/">
      <return><listEventInfoComp><events><code>D</code><eventDate>2024-01-05</eventDate></events></listEventInfoComp></return>
    </ns1:trackSkybillV2Response>
  </soap:Body>
</soap:Envelope>`

	raw, err := decodeResponse(strings.NewReader(doc), newContract().ListElements)
	require.NoError(t, err)
	require.Contains(t, raw, "return")

	res := normalizer.Normalize(raw)
	assert.Equal(t, "Livré", res.Status)
	assert.Equal(t, "D", res.StatusCode)
	assert.Equal(t, "2024-01-05", res.Date)
}

func TestDecodeResponse_SOAP12(t *testing.T) {
	doc := `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope">
  <env:Body><env:Fault>
    <env:Code><env:Value>env:Receiver</env:Value></env:Code>
    <env:Reason><env:Text xml:lang="fr">service indisponible</env:Text></env:Reason>
  </env:Fault></env:Body>
</env:Envelope>`

	_, err := decodeResponse(strings.NewReader(doc), nil)

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "env:Receiver", fault.Code)
	assert.Equal(t, "service indisponible", fault.Message)
}

func TestDecodeResponse_Shapes(t *testing.T) {
	doc := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><soap:Body>
  <ns1:resp xmlns:ns1="urn:t"><return>
    <events><code>T</code></events>
    <office xsi:type="xs:string">Chilly</office>
    <zipCode xsi:nil="true"/>
    <empty/>
  </return></ns1:resp>
</soap:Body></soap:Envelope>`

	raw, err := decodeResponse(strings.NewReader(doc), newContract().ListElements)
	require.NoError(t, err)

	ret := raw.(map[string]any)["return"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"code": "T"}}, ret["events"])
	assert.Equal(t, "Chilly", ret["office"])
	assert.Contains(t, ret, "zipCode")
	assert.Nil(t, ret["zipCode"])
	assert.Equal(t, "", ret["empty"])
}

func TestDecodeResponse_EmptyWrapper(t *testing.T) {
	raw, err := decodeResponse(strings.NewReader(
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><ns1:resp xmlns:ns1="urn:t"/></soap:Body></soap:Envelope>`,
	), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, raw)
}

func TestFactory_ConcurrentConnectsShareDiscovery(t *testing.T) {
	fs := newFakeService(t)
	release := fs.holdWSDL()
	t.Cleanup(release)
	f := fs.factory()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Connect(context.Background())
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return fs.wsdlHits.Load() == 1 }, time.Second, 5*time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fs.wsdlHits.Load())
}

func TestFactory_WaiterHonoursContext(t *testing.T) {
	fs := newFakeService(t)
	release := fs.holdWSDL()
	t.Cleanup(release)
	f := fs.factory()

	go func() { _, _ = f.Connect(context.Background()) }()
	require.Eventually(t, func() bool { return fs.wsdlHits.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Connect(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	release()
	_, err = f.Connect(context.Background())
	assert.NoError(t, err)
}

func TestFactory_ContractTTL(t *testing.T) {
	fs := newFakeService(t)

	uncached := fs.factoryWithTTL(0)
	for range 2 {
		_, err := uncached.Connect(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), fs.wsdlHits.Load())

	clock := time.Date(2024, 1, 5, 14, 0, 0, 0, time.UTC)
	cached := fs.factoryWithTTL(time.Minute)
	cached.now = func() time.Time { return clock }

	_, err := cached.Connect(context.Background())
	require.NoError(t, err)
	_, err = cached.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), fs.wsdlHits.Load())

	clock = clock.Add(2 * time.Minute)
	_, err = cached.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), fs.wsdlHits.Load())
}

func TestEncodeRequest_EscapesValues(t *testing.T) {
	b, err := encodeRequest("urn:x", "track", map[string]any{"skybillNumber": `<a&"b">`, "language": "fr_FR"})
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `<skybillNumber>&lt;a&amp;&#34;b&#34;&gt;</skybillNumber>`)
	assert.Less(t, strings.Index(s, "<language>"), strings.Index(s, "<skybillNumber>"))
}
