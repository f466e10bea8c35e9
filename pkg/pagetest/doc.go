// Package pagetest provides a page harness for testing hosts and component
// code against the runtime without a browser.
//
// A Page pairs an in-memory document with a Runtime and a reference
// vdom.Model. Every batch applied to the page is replayed on the model, so
// tests can check both what the document looks like and that it matches
// the model.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    p := pagetest.New(t)
//	    btn := p.Mount(vdom.Elem("button", nil, vdom.Text("0")))
//	    p.ExpectContains("<button>0</button>")
//
//	    got := p.Click("counter", "OnClick", btn)
//	    if got.Target != "OnClick" {
//	        t.Errorf("Target = %q", got.Target)
//	    }
//	    p.ExpectConsistent()
//	}
package pagetest
