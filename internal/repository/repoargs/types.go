package repoargs

type RepositoryName string

const (
	UserRepoName     RepositoryName = "user"
	PurchaseRepoName RepositoryName = "purchase"
)
