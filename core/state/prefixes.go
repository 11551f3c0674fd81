package state

var (
	paramPrefix              = []byte("params/")
	balancePrefix            = []byte("bank/balance/")
	splitpayOwnerKey         = []byte("splitpay/owner")
	splitpayManagerPrefix    = []byte("splitpay/manager/")
	splitpayBeneficiariesKey = []byte("splitpay/beneficiaries")
	splitpayApprovalPrefix   = []byte("splitpay/approval/")
	splitpayTotalsKey        = []byte("splitpay/totals")
)

func paramKey(name string) []byte {
	buf := make([]byte, len(paramPrefix)+len(name))
	copy(buf, paramPrefix)
	copy(buf[len(paramPrefix):], name)
	return buf
}

func balanceKey(addr [20]byte) []byte {
	buf := make([]byte, len(balancePrefix)+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], addr[:])
	return buf
}

func splitpayManagerKey(addr [20]byte) []byte {
	buf := make([]byte, len(splitpayManagerPrefix)+len(addr))
	copy(buf, splitpayManagerPrefix)
	copy(buf[len(splitpayManagerPrefix):], addr[:])
	return buf
}

func splitpayApprovalKey(owner, spender [20]byte) []byte {
	buf := make([]byte, len(splitpayApprovalPrefix)+len(owner)+len(spender))
	copy(buf, splitpayApprovalPrefix)
	copy(buf[len(splitpayApprovalPrefix):], owner[:])
	copy(buf[len(splitpayApprovalPrefix)+len(owner):], spender[:])
	return buf
}
