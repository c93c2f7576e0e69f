// internal/domain/homework/homework.go
package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is a review verdict code as reported by the API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable sentence for a status code.
func Verdict(s Status) (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

const (
	fieldHomeworks   = "homeworks"
	fieldCurrentDate = "current_date"
	fieldName        = "homework_name"
	fieldStatus      = "status"
)

// Payload is the top-level JSON object returned by the API, not yet validated.
type Payload map[string]json.RawMessage

// Homework is a single homework record. Only the fields the bot reads are checked.
type Homework map[string]any

// Response is a payload that passed CheckResponse.
// Only the first homework is decoded; the rest of the list is never examined.
type Response struct {
	Latest      Homework // nil when the list is empty
	Total       int
	CurrentDate int64
}

// HasHomeworks reports whether the response carries at least one record.
func (r *Response) HasHomeworks() bool {
	return r.Total > 0
}

// CheckResponse validates the payload shape and decodes it.
// Both homeworks and current_date must be present.
func CheckResponse(p Payload) (*Response, error) {
	rawHomeworks, okHomeworks := p[fieldHomeworks]
	rawDate, okDate := p[fieldCurrentDate]
	if !okHomeworks || !okDate {
		return nil, NewError(KindShape, "Отсутствуют ожидаемые поля homeworks или current_date")
	}

	var items []json.RawMessage
	if isNull(rawHomeworks) || json.Unmarshal(rawHomeworks, &items) != nil {
		return nil, NewError(KindShape, "Неверный тип поля homeworks")
	}
	resp := &Response{Total: len(items)}
	if len(items) > 0 {
		if isNull(items[0]) || json.Unmarshal(items[0], &resp.Latest) != nil {
			return nil, NewError(KindShape, "Неверный тип поля homeworks")
		}
	}

	if isNull(rawDate) || json.Unmarshal(rawDate, &resp.CurrentDate) != nil {
		return nil, NewError(KindShape, "Неверный тип поля current_date")
	}
	return resp, nil
}

// ParseStatus renders the status-change message for a homework record.
func ParseStatus(hw Homework) (string, error) {
	name, ok := hw[fieldName]
	if !ok || name == nil {
		return "", NewError(KindParse, `В ответе нет ожидаемого поля "homework_name"`)
	}
	status, _ := hw[fieldStatus].(string)
	verdict, ok := Verdict(Status(status))
	if !ok {
		return "", NewError(KindParse, "В поле status неожиданное значение %v", hw[fieldStatus])
	}
	return fmt.Sprintf(`Изменился статус проверки работы "%v". %s`, name, verdict), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
