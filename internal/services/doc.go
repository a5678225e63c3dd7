// Package services implements the external collaborators of the playlist pipeline: the Spotify Web API client,
// the OAuth2 token lifecycle and the chart scraper.
//
// # Token Manager
//
// [TokenManager] hands out bearer tokens. The latest stored [models.TokenRecord] is reused while it is younger
// than an hour; an older one is exchanged for a new access token with its refresh token, and with nothing stored
// the user goes through the authorization code flow. The exchange itself is done by [oauth2.Config] with client
// credentials in a Basic auth header.
//
// Authorization codes come from an [AuthorizationCodeProvider]:
//   - [PromptCodeProvider] opens the browser and reads the pasted redirect URL
//   - [CallbackCodeProvider] serves the redirect URI locally and captures the redirect
//   - [StaticCodeProvider] returns a fixed code
//
// Codes are single-use and are never written to disk. Only token records, including the refresh token, persist.
//
// # Spotify
//
// [SpotifyService] covers the four calls the pipeline makes: the current user's id, a playlist lookup by exact
// name across all pages, a single-result track search and adding tracks to a playlist.
//
// # Chart
//
// [HotNewHipHopChart] scrapes the HotNewHipHop top 100 page with goquery. [ParseChart] holds the selector logic.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAuth] : provider rejected a grant or returned an incomplete token
//   - [shared.ErrNetwork] : transport failure or non-2xx chart page
//   - [shared.ErrTokenExpired] : API returned 401
//   - [shared.ErrPlaylistNotFound] : no playlist with the configured name
//   - [shared.ErrSearchMiss] : search returned no tracks
//   - [shared.ErrSubmission] : adding tracks returned non-2xx
package services
