// Package services implements the HTTP clients of the tracker: Google Sheets as the tracking store and Telegram as
// the daily notification channel.
//
// # HTTP Plumbing
//
// [APIService] wraps one base URL. [NewHTTPClient] layers retries (go-retryablehttp) over any transport, so the
// OAuth2 client of the Sheets API and the plain client of the Bot API share the same backoff on 429 and 5xx
// responses. Response bodies are read with gjson.
//
// # Google Sheets
//
// [SheetsClient] authenticates with a service-account key (golang.org/x/oauth2/google) and paces requests with a
// [rate.Limiter]. [SheetsClient.Worksheet] finds or creates a worksheet and returns a [SheetsGrid], which
// implements [models.Grid]:
//   - full reads through values.get
//   - batched appends through values.append (RAW input, so dates and ids stay text)
//   - batched cell writes through values.batchUpdate
//   - column inserts, row backgrounds and header styling through spreadsheets.batchUpdate
//
// # Telegram
//
// [TelegramNotifier] implements [Notifier] with sendMessage (HTML parse mode), pinChatMessage and a multipart
// sendDocument.
//
// # Error Handling
//
// Failed requests wrap [shared.ErrAPIRequest] with the API's own error text. Missing keys and tokens wrap
// [shared.ErrMissingCredentials].
package services
