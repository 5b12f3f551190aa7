// Package model abstracts the language model backends the pipeline calls.
//
// Every stage talks to a Model: the extractor and adjudicator usually run
// on an OpenAI or Anthropic backend, research workers on whichever backend
// the config names, and tests on MockModel. The interface unifies streaming
// and non-streaming generation and normalizes tool call shapes, so flows
// never touch a vendor SDK directly.
package model
