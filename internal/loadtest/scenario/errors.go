package scenario

// AccountError marks a failure to resolve or fund the scenario's account.
// It aborts the scenario.
type AccountError struct {
	Err error
}

func (e *AccountError) Error() string {
	return "account setup failed: " + e.Err.Error()
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

// CreditError marks a failed storage credit purchase. It aborts the scenario.
type CreditError struct {
	Err error
}

func (e *CreditError) Error() string {
	return "credit purchase failed: " + e.Err.Error()
}

func (e *CreditError) Unwrap() error {
	return e.Err
}

// BucketError marks a failure to resolve the scenario's bucket. It aborts
// the scenario.
type BucketError struct {
	Err error
}

func (e *BucketError) Error() string {
	return "bucket resolution failed: " + e.Err.Error()
}

func (e *BucketError) Unwrap() error {
	return e.Err
}
