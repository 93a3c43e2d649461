package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"whatsapp-hub/internal/config"

	"github.com/google/uuid"
)

type Client struct {
	Config *config.Config
	http   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		Config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	RecipientType    string          `json:"recipient_type,omitempty"`
	Context          *ContextObj     `json:"context,omitempty"`
	Text             *TextObj        `json:"text,omitempty"`
	Image            *MediaObj       `json:"image,omitempty"`
	Video            *MediaObj       `json:"video,omitempty"`
	Audio            *MediaObj       `json:"audio,omitempty"`
	Document         *MediaObj       `json:"document,omitempty"`
	Sticker          *MediaObj       `json:"sticker,omitempty"`
	Location         *LocationObj    `json:"location,omitempty"`
	Reaction         *ReactionObj    `json:"reaction,omitempty"`
	Template         *TemplateObj    `json:"template,omitempty"`
	Interactive      *InteractiveObj `json:"interactive,omitempty"`
}

type ContextObj struct {
	MessageID string `json:"message_id"` // wa_message_id being replied to
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type MediaObj struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"` // For documents
}

type LocationObj struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type ReactionObj struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Parameters []ParameterObj `json:"parameters"`
	Index      string         `json:"index,omitempty"` // For buttons
}

type ParameterObj struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Image    *MediaObj `json:"image,omitempty"`
	Video    *MediaObj `json:"video,omitempty"`
	Document *MediaObj `json:"document,omitempty"`
}

type InteractiveObj struct {
	Type   string     `json:"type"`
	Header *HeaderObj `json:"header,omitempty"`
	Body   BodyObj    `json:"body"`
	Footer *FooterObj `json:"footer,omitempty"`
	Action ActionObj  `json:"action"`
}

type HeaderObj struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Video    *MediaObj `json:"video,omitempty"`
	Image    *MediaObj `json:"image,omitempty"`
	Document *MediaObj `json:"document,omitempty"`
}

type BodyObj struct {
	Text string `json:"text"`
}

type FooterObj struct {
	Text string `json:"text"`
}

type ActionObj struct {
	Button   string       `json:"button,omitempty"`
	Buttons  []ButtonObj  `json:"buttons,omitempty"`
	Sections []SectionObj `json:"sections,omitempty"`
}

type ButtonObj struct {
	Type  string   `json:"type"`
	Reply ReplyObj `json:"reply"`
}

type ReplyObj struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SectionObj struct {
	Title string   `json:"title,omitempty"`
	Rows  []RowObj `json:"rows,omitempty"`
}

type RowObj struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(method, url string, body interface{}, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// --- Messaging Methods ---

// SendResult is what the platform reports back for an accepted message.
type SendResult struct {
	MessageID     string // platform-assigned wamid
	RecipientWaID string // canonical recipient address
}

// SendRawMessage posts a composed message and returns the id the platform
// assigned to it, which is the key every later delivery receipt carries.
func (c *Client) SendRawMessage(msg GenericMessage) (*SendResult, error) {
	url := fmt.Sprintf("%s/%s/messages", c.Config.GraphBaseURL, c.Config.PhoneNumberID)
	respBody, err := c.sendRequest("POST", url, msg, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Contacts []struct {
			WaID string `json:"wa_id"`
		} `json:"contacts"`
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return nil, fmt.Errorf("send response carried no message id")
	}

	result := &SendResult{
		MessageID:     resp.Messages[0].ID,
		RecipientWaID: msg.To,
	}
	if len(resp.Contacts) > 0 && resp.Contacts[0].WaID != "" {
		result.RecipientWaID = resp.Contacts[0].WaID
	}
	return result, nil
}

func (c *Client) SendMessage(to, body string) (*SendResult, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text: &TextObj{
			Body: body,
		},
	}
	return c.SendRawMessage(msg)
}

func (c *Client) SendTemplateMessage(to, templateName, languageCode string) (*SendResult, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name: templateName,
			Language: LanguageObj{
				Code: languageCode,
			},
		},
	}
	return c.SendRawMessage(msg)
}

func (c *Client) SendImageMessage(to, imageUrl, caption string) (*SendResult, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "image",
		Image: &MediaObj{
			Link:    imageUrl,
			Caption: caption,
		},
	}
	return c.SendRawMessage(msg)
}

func (c *Client) SendReaction(to, waMessageID, emoji string) (*SendResult, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "reaction",
		Reaction: &ReactionObj{
			MessageID: waMessageID,
			Emoji:     emoji,
		},
	}
	return c.SendRawMessage(msg)
}

// --- Media Methods ---

type MediaResponse struct {
	ID string `json:"id"`
}

func (c *Client) UploadMedia(fileData []byte, mimeType, filename string) (*MediaResponse, error) {
	url := fmt.Sprintf("%s/%s/media", c.Config.GraphBaseURL, c.Config.PhoneNumberID)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	part.Write(fileData)

	writer.WriteField("messaging_product", "whatsapp")
	writer.Close()

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upload failed: %s - %s", resp.Status, string(respBody))
	}

	var mediaResp MediaResponse
	if err := json.Unmarshal(respBody, &mediaResp); err != nil {
		return nil, err
	}

	return &mediaResp, nil
}

func (c *Client) RetrieveMediaURL(mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s", c.Config.GraphBaseURL, mediaID)
	resp, err := c.sendRequest("GET", url, nil, nil)
	if err != nil {
		return "", err
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp, &obj); err != nil {
		return "", err
	}
	return obj.URL, nil
}

// DownloadMedia fetches the media bytes behind mediaID. The lookaside URL
// WhatsApp hands out only answers with the same bearer token.
func (c *Client) DownloadMedia(mediaID string) ([]byte, string, error) {
	mediaURL, err := c.RetrieveMediaURL(mediaID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequest("GET", mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("download failed: %s - %s", resp.Status, string(data))
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) DeleteMedia(mediaID string) error {
	url := fmt.Sprintf("%s/%s", c.Config.GraphBaseURL, mediaID)
	_, err := c.sendRequest("DELETE", url, nil, nil)
	return err
}

// --- Template Methods ---

func (c *Client) GetTemplates() (interface{}, error) {
	url := fmt.Sprintf("%s/%s/message_templates", c.Config.GraphBaseURL, c.Config.WhatsAppBusinessAccountID)
	resp, err := c.sendRequest("GET", url, nil, nil)
	if err != nil {
		return nil, err
	}

	var result interface{}
	err = json.Unmarshal(resp, &result)
	return result, err
}
