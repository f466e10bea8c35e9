package offline

import (
	"encoding/json"
	"io"
	"text/template"
)

// ScriptPath is where hosts serve the worker script.
const ScriptPath = "/app-worker.js"

var scriptTmpl = template.Must(template.New("app-worker.js").Funcs(template.FuncMap{
	"js": jsString,
}).Parse(`const cacheName = {{js .CacheName}};

self.addEventListener("install", event => {
  console.log("installing app worker " + {{js .Fingerprint}});

  event.waitUntil(
    caches.open(cacheName)
      .then(cache => {
        return cache.addAll([
{{- range .Assets}}
          {{js .}},
{{- end}}
        ]);
      })
      .then(() => {
        self.skipWaiting();
      })
  );
});

self.addEventListener("activate", event => {
  event.waitUntil(
    caches.keys().then(keyList => {
      return Promise.all(
        keyList.map(key => {
          if (key !== cacheName) {
            return caches.delete(key);
          }
        })
      );
    })
  );
  console.log("app worker " + {{js .Fingerprint}} + " is activated");
});

self.addEventListener("fetch", event => {
  event.respondWith(
    caches.match(event.request).then(response => {
      return response || fetch(event.request);
    })
  );
});
`))

// jsString renders s as a JavaScript string literal. JSON escaping also
// escapes '<', '>' and '&', so the output is safe inside a script tag.
func jsString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

// WriteScript renders the browser worker script for w.
func (w *Worker) WriteScript(out io.Writer) error {
	return scriptTmpl.Execute(out, struct {
		CacheName   string
		Fingerprint string
		Assets      []string
	}{
		CacheName:   w.CacheName(),
		Fingerprint: w.Fingerprint,
		Assets:      w.Assets,
	})
}

// Script renders the worker script for a fingerprint and asset list with
// the default cache prefix.
func Script(out io.Writer, fingerprint string, assets []string) error {
	w := &Worker{Fingerprint: fingerprint, Assets: assets}
	return w.WriteScript(out)
}
