package requestdata

import (
  "context"
  "github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// RequestData is the authenticated actor for the duration of one request.
// Roles are derived once at authentication and passed through the call
// chain; services never re-query role membership ad hoc.
type RequestData struct {
  TokenString  string
  UserID       uuid.UUID
  Roles        []string
}

func (rd *RequestData) HasRole(role string) bool {
  if rd == nil {
    return false
  }
  for _, r := range rd.Roles {
    if r == role {
      return true
    }
  }
  return false
}
