package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

// parsePageParams reads page and limit from the query string. Missing values
// fall back to the defaults; malformed values are rejected. Range checks live
// in the query service.
func parsePageParams(r *http.Request, defaultLimit int) (page, limit int, err error) {
	page, limit = 1, defaultLimit
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: page must be an integer", domain.ErrValidation)
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation)
		}
	}
	return page, limit, nil
}

// parseMessageListInput reads the full message-listing option set:
// page, limit, sortBy, type, includeDeleted.
func parseMessageListInput(r *http.Request, defaultLimit int) (service.ListMessagesInput, error) {
	page, limit, err := parsePageParams(r, defaultLimit)
	if err != nil {
		return service.ListMessagesInput{}, err
	}

	in := service.ListMessagesInput{
		Page:  page,
		Limit: limit,
		Sort:  domain.MessageSort(r.URL.Query().Get("sortBy")),
	}
	if v := r.URL.Query().Get("type"); v != "" {
		mt := domain.MessageType(v)
		in.Type = &mt
	}
	if v := r.URL.Query().Get("includeDeleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return service.ListMessagesInput{}, fmt.Errorf("%w: includeDeleted must be a boolean", domain.ErrValidation)
		}
		in.IncludeDeleted = b
	}
	return in, nil
}
