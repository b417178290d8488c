// Package httpmodules provides pipeline modules for HTTP requests and response handling.
//
// Use Get or Fetch to perform a GET request, ParseJSON to unmarshal the response body,
// and Expect to verify the parsed result and fail the stage if not as expected.
// Requests run asynchronously on an executor (a new goroutine by default), so a pump
// never blocks on I/O.
//
// Example stage: GET url → ParseJSON → Expect(predicate)
//
//	check := pipeline.Via(pipeline.NewPipe("check-api", httpmodules.Get[any](nil, "https://api.example.com/status")),
//	    httpmodules.ParseJSON()).
//	    Then(httpmodules.Expect(func(v any) error {
//	        m, _ := v.(map[string]any)
//	        if m["status"] != "ok" {
//	            return errors.New("unexpected status")
//	        }
//	        return nil
//	    })).
//	    MustBuild()
package httpmodules
