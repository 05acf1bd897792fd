package bot

const (
	textHelp  = "You can search your repos by keyword. \nFirstly, /repoadd"
	textAbout = "issuebot: register GitHub repos with /repoadd, then send any keyword to search their issues."

	textTokenPromptNew      = "Add github token, if you need to search a private repository"
	textTokenPromptReplace  = "Token Added, new token will replaced the old one."
	textTokenAdded          = "token added!"
	textTokenInvalid        = "token is invalid!"
	textTokenCleared        = "Token cleared!"
	textTokenMissing        = "You haven't added the token！"
	textRepoAddPrompt       = "Add github repo, send repo path like `yagop/node-telegram-bot-api`"
	textRepoDelPrompt       = "Remove github repo, send repo path like `yagop/node-telegram-bot-api`"
	textRepoInvalid         = "repo name invalid, send repo path like yagop/node-telegram-bot-api"
	textRepoAdded           = "repo added\n"
	textRepoDeleted         = "repo deleted\n"
	textNoRepo              = "No repo added"
	textReposCleared        = "Your repo cleared!"
	textAddRepoFirst        = "You should add repo firstly! just type /repoadd"
	textKeywordTooShort     = "Keywords must have at least 2 characters!"
	textRateLimited         = "Too many searches, please try again in a minute."
	textSearching           = "Searching⏳..."
	textFoundTemplate       = "Found %d issues about keyword `%s`\n"
	textNoMatchTemplate     = "No issues matched your keyword `%s`."
	textPromptExpiredFormat = "No reply received, /%s cancelled."
)
