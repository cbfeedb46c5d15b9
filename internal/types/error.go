package types

type (
	// Every non 2xx response body
	Error struct {
		Error string `json:"error" validate:"required"`
	}

	Message struct {
		Message string `json:"message" validate:"required"`
	}
)

func StringError(err string) Error {
	return Error{Error: err}
}
