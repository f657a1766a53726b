package kafka

// TopicFindingScored carries finding.scored envelopes. The inbound topic
// is configurable (FINDING_TOPIC).
const TopicFindingScored = "finding.scored"
