package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrUserNotFound        = errors.New("user not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrScrimNotFound       = errors.New("scrim not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrTierRequestNotFound = errors.New("tier request not found")

	// Ошибки валидации
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrTeamInvalidCapacity  = errors.New("team max members must be at least 1")
	ErrScrimTitleRequired   = errors.New("scrim title is required")
	ErrScrimMapsRequired    = errors.New("scrim must offer at least one map")
	ErrScrimInvalidMaps     = errors.New("scrim contains maps outside the map pool")
	ErrScrimInvalidRounds   = errors.New("max rounds must be 13 or 24")
	ErrScrimInvalidGames    = errors.New("number of games must be at least 1")
	ErrScrimScheduleInPast  = errors.New("scheduled time must be in the future")
	ErrScrimInvalidCapacity = errors.New("max participants must be an even number of at least 2")
	ErrMapsNotSubset        = errors.New("selected maps must be a subset of the scrim map pool")
	ErrInvalidTier          = errors.New("unknown tier")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrUserAlreadyInTeam    = errors.New("user is already in a team")
	ErrTeamFull             = errors.New("team has reached its member capacity")
	ErrDuplicateApplication = errors.New("team already applied to this scrim")
	ErrPendingTierRequest   = errors.New("account already has a pending tier upgrade request")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAdminOnly              = errors.New("admin access required")
	ErrNotTeamMember          = errors.New("user does not belong to the team")
	ErrUserHasNoTeam          = errors.New("user must be in a team for this action")
	ErrOwnerActionForbidden   = errors.New("only the team owner can perform this action")
	ErrTierCannotCreateTeam   = errors.New("tier_1 and tier_2 accounts cannot create teams")
	ErrTierNotVisible         = errors.New("scrim tier is not accessible for this account")

	// Ошибки жизненного цикла
	ErrScrimNotOpen        = errors.New("scrim is not open")
	ErrScrimNotFilled      = errors.New("scrim is not filled")
	ErrOwnScrimApplication = errors.New("cannot apply to your own scrim")
	ErrTierRequestResolved = errors.New("tier request is already resolved")

	// Нарушение монотонности тира
	ErrTierNotUpgrade = errors.New("requested tier must be strictly above the current tier")
)
