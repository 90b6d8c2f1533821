// Package generichttp is a simetry.Source for simulations that publish their
// live state as a JSON document over plain HTTP.
//
// A Client is bound to the session that was running when it connected. Every
// poll is a single GET bounded by PollTimeout; anything other than a decodable
// payload from the same session ends the session for that Client. Callers that
// want to follow the next session create a new Client.
package generichttp
