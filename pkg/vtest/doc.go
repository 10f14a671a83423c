// Package vtest provides a headless harness for testing screens.
//
// A Harness wires a document, a loop, a memory history, and a router,
// with FakeModels standing in for the API and FakeDialer for the push
// channel. Async work is driven explicitly with Settle or Until, so tests
// decide exactly when model responses arrive.
//
// # Quick Start
//
//	func TestProfile(t *testing.T) {
//	    h := vtest.New(t)
//	    h.Models.Profile = model.Profile{ID: 7, Name: "ann", About: vtest.Ptr("hi")}
//	    h.Handle(app.Routes(app.Deps{Models: h.Models, Tags: h.Tags})...)
//
//	    h.Navigate("/my/profile")
//	    h.Settle()
//	    h.ExpectText("name", "ann")
//	}
//
// # Holding Responses
//
// Hold blocks one model operation until released, which is how tests
// navigate away while a request is in flight:
//
//	release := h.Models.Hold("get_profile")
//	h.Navigate("/my/profile")
//	h.Navigate("/search")
//	release()
//	h.Settle() // the late result is dropped
//
// # Render Assertions
//
//	vtest.ExpectContains(t, h.Doc.Body(), "Page not found")
//	h.ExpectBound("submit")
package vtest
