// Package detect classifies journal entries as anomalies or noise.
//
// Classification runs in three layers: user-managed ignore rules first, then
// the configured OpenAI-compatible model with an embedded triage prompt, then
// a keyword heuristic that also serves as the fallback whenever the model is
// unconfigured or its answer is unusable. The stream never stops on a
// classification failure.
package detect
