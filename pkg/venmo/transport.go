package venmo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type serviceErrorBody struct {
	Error struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// doJSON issues one request with the default headers and applies the shared
// response contract.
func (client *Client) doJSON(ctx context.Context, method string, url string, payload any) (Document, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, WrapError(errorOperationClient, errorSubjectRequest, errorCodeEncode, err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, WrapError(errorOperationClient, errorSubjectRequest, errorCodeBuild, err)
	}
	for name, value := range client.headers() {
		request.Header.Set(name, value)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, WrapError(errorOperationClient, errorSubjectRequest, errorCodeTransport, err)
	}
	defer response.Body.Close()
	return handleResponse(response)
}

func (client *Client) headers() map[string]string {
	return map[string]string{
		headerUserAgent:     client.credentials.UserAgent,
		headerContentType:   contentTypeJSON,
		headerAuthorization: bearerPrefix + client.credentials.Token,
	}
}

func handleResponse(response *http.Response) (Document, error) {
	raw, err := io.ReadAll(response.Body)
	if response.StatusCode == http.StatusOK {
		if err != nil {
			return nil, WrapError(errorOperationClient, errorSubjectResponse, errorCodeTransport, err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return Document{}, nil
		}
		return decodeDocument(raw)
	}

	// An unreadable error body carries no service details.
	serviceMessage, serviceCode := "", ""
	if err == nil {
		serviceMessage, serviceCode = parseServiceError(raw)
	}
	if response.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{
			Message:     messageInvalidToken,
			Status:      response.StatusCode,
			ServiceCode: serviceCode,
		}
	}
	return nil, &APIError{
		Integration:    integrationName,
		Status:         response.StatusCode,
		Message:        fmt.Sprintf(messageHTTPError, response.StatusCode),
		ServiceMessage: serviceMessage,
		ServiceCode:    serviceCode,
	}
}

func decodeDocument(raw []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var document Document
	if err := decoder.Decode(&document); err != nil {
		return nil, WrapError(errorOperationClient, errorSubjectResponse, errorCodeDecode, err)
	}
	if document == nil {
		return nil, WrapError(errorOperationClient, errorSubjectResponse, errorCodeDecode, fmt.Errorf("empty json body"))
	}
	return document, nil
}

// parseServiceError reads error.message and error.code when the body has them.
func parseServiceError(raw []byte) (string, string) {
	var parsed serviceErrorBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", ""
	}
	code := string(parsed.Error.Code)
	var quoted string
	if err := json.Unmarshal(parsed.Error.Code, &quoted); err == nil {
		code = quoted
	}
	if code == "null" {
		code = ""
	}
	return parsed.Error.Message, code
}
