// server serves figures as live svg pages. Each figure kind gets a page whose
// views are pushed new element updates over a websocket whenever a figure of
// that kind is displayed again.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"blackjackviz/figure"
	"blackjackviz/server/fastview"
	"blackjackviz/server/heatmap_views"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const shutdownGracePeriod = 5 * time.Second

// ErrClosed is returned by Display once the server's context is done.
var ErrClosed = errors.New("server closed")

// Server displays figures to any number of browser clients. It implements
// plot.Displayer: Display never waits on clients.
type Server struct {
	addr   string
	ctx    context.Context
	router *mux.Router

	mu    sync.RWMutex
	slots map[string]*slot
}

// NewServer returns a server listening on addr once Serve is called. Its views
// and client connections live until ctx is cancelled.
func NewServer(ctx context.Context, addr string) (*Server, error) {
	srv := &Server{
		addr:  addr,
		ctx:   ctx,
		slots: map[string]*slot{},
	}

	router := mux.NewRouter()
	router.HandleFunc("/", srv.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/figures/{kind}", srv.serveFigure).Methods(http.MethodGet)
	router.HandleFunc("/ws/{kind}", srv.serveWebsocket).Methods(http.MethodGet)
	srv.router = router

	return srv, nil
}

// Handler returns the server's routes, e.g. for mounting under httptest.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Serve listens until the server's context is cancelled, then shuts down.
func (srv *Server) Serve() error {
	httpServer := &http.Server{
		Addr:    srv.addr,
		Handler: srv.router,
	}

	group, groupCtx := errgroup.WithContext(srv.ctx)
	group.Go(func() error {
		glog.Infof("serving figures on %s", srv.addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// Display publishes the figure to its kind's page, creating the page on first
// use. Clients see the latest figure; figures superseded before a client
// catches up are skipped.
func (srv *Server) Display(ctx context.Context, fig figure.Figure) error {
	if err := srv.ctx.Err(); err != nil {
		return ErrClosed
	}

	srv.mu.Lock()
	sl, ok := srv.slots[fig.Kind]
	if !ok {
		var err error
		if sl, err = newSlot(srv.ctx, fig); err != nil {
			srv.mu.Unlock()
			return err
		}
		srv.slots[fig.Kind] = sl
		glog.Infof("new figure page /figures/%s", fig.Kind)
	}
	srv.mu.Unlock()

	return sl.push(ctx, fig)
}

func (srv *Server) slot(kind string) (*slot, bool) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	sl, ok := srv.slots[kind]
	return sl, ok
}

func (srv *Server) kinds() []string {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	kinds := make([]string, 0, len(srv.slots))
	for kind := range srv.slots {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
	<head><link rel="icon" href="data:,"><title>Figures</title></head>
	<body style="font-family: sans-serif;">
		<h2>Figures</h2>
		<ul>
		{{ range . }}<li><a href="/figures/{{ . }}">{{ . }}</a></li>{{ else }}<li>Nothing displayed yet.</li>{{ end }}
		</ul>
	</body>
</html>`))

// serveIndex lists the figure pages.
func (srv *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := indexTemplate.Execute(w, srv.kinds()); err != nil {
		glog.Warningf("index: %v", err)
	}
}

// serveFigure renders the page of a figure kind from its latest figure.
func (srv *Server) serveFigure(w http.ResponseWriter, r *http.Request) {
	sl, ok := srv.slot(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	if err := renderTemplate(w, sl.root, heatmap_views.Convert(sl.latest())); err != nil {
		glog.Warningf("render %s: %v", sl.kind, err)
		_, _ = w.Write([]byte(err.Error()))
	}
}

// serveWebsocket publishes a figure kind's element updates to one client
// until it disconnects.
func (srv *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	sl, ok := srv.slot(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	updates, unsubscribe := sl.hub.subscribe()
	defer unsubscribe()

	cli, err := fastview.NewClient(updates, w, r)
	if err != nil {
		glog.Warningf("upgrade: %v", err)
		return
	}
	glog.V(1).Infof("client %s joined %s", r.RemoteAddr, sl.kind)
	if err = cli.Sync(); err != nil {
		glog.Warningf("client %s dropped from %s: %v", r.RemoteAddr, sl.kind, err)
	}
}

// renderTemplate executes a view component as a whole page.
func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
