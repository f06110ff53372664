package outbox

const logRecordedSchema = `{
  "type": "object",
  "title": "LogRecorded",
  "properties": {
    "log_id": {"type": "string"},
    "owner_id": {"type": "string"},
    "activity_type": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "quantity": {"type": "number"},
    "unit": {"type": "string"},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["log_id", "owner_id", "activity_type", "date", "recorded_at"],
  "additionalProperties": false
}`

const payoutDecidedSchema = `{
  "type": "object",
  "title": "PayoutDecided",
  "properties": {
    "payout_id": {"type": "string"},
    "owner_id": {"type": "string"},
    "amount": {"type": "number"},
    "status": {"type": "string"},
    "flagged": {"type": "boolean"},
    "risk_score": {"type": "number"},
    "decided_at": {"type": "string", "format": "date-time"}
  },
  "required": ["payout_id", "owner_id", "amount", "status", "flagged", "risk_score", "decided_at"],
  "additionalProperties": false
}`
